package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	otelMocks "pgnest/infras/otel/mocks"
	bookingMocks "pgnest/internal/domains/booking/mocks"
	bookingModel "pgnest/internal/domains/booking/model"
	paymentMocks "pgnest/internal/domains/payment/mocks"
	"pgnest/internal/domains/payment/model"
	"pgnest/internal/domains/payment/model/dto"
	"pgnest/internal/domains/payment/service"
	"pgnest/internal/domains/payment/store"
	"pgnest/shared/failure"
	"pgnest/shared/timezone"
)

type fixture struct {
	bookingRepo *bookingMocks.MockBooking
	store       *paymentMocks.MockStore
	svc         service.Payment
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)

	f := &fixture{
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		store:       paymentMocks.NewMockStore(ctrl),
	}

	f.svc = service.New(f.bookingRepo, f.store, otelMocks.NewOtel())

	return f
}

func acceptedBooking() bookingModel.Booking {
	return bookingModel.Booking{
		ID:         "booking-1",
		RoomID:     "room-1",
		UserID:     "user-1",
		AcceptedAt: sql.NullTime{Time: timezone.Now(), Valid: true},
		AcceptedBy: sql.NullString{String: "admin-1", Valid: true},
	}
}

func TestPaymentService_GetActive(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the session with its remaining lifetime", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Get(gomock.Any(), "room-1").
			Return(model.Session{RoomID: "room-1", Amount: 5000, PaymentDunning: 5, Message: "first month"}, 432000*time.Second, nil)

		res, err := f.svc.GetActive(ctx, "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, float64(5000), res.Amount)
		assert.Equal(t, 5, res.DunningDays)
		assert.Equal(t, int64(432000), res.TTLSeconds)
	})

	t.Run("expired session reports not found", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Get(gomock.Any(), "room-1").Return(model.Session{}, time.Duration(0), store.ErrNoSession)

		_, err := f.svc.GetActive(ctx, "booking-1")

		assert.True(t, failure.IsNotFound(err))
	})

	t.Run("unknown booking reports not found", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(bookingModel.Booking{}, nil)

		_, err := f.svc.GetActive(ctx, "missing")

		assert.True(t, failure.IsNotFound(err))
	})
}

func TestPaymentService_Create(t *testing.T) {
	ctx := context.Background()

	req := dto.CreatePaymentRequest{Amount: 5000, DunningDays: 5, Message: "first month"}

	t.Run("writes the session keyed by the booking's room", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Create(gomock.Any(), model.Session{
			RoomID:         "room-1",
			Amount:         5000,
			PaymentDunning: 5,
			Message:        "first month",
		}).Return(true, nil)

		assert.NoError(t, f.svc.Create(ctx, "booking-1", req))
	})

	t.Run("rejects when a session is already live", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(false, nil)

		err := f.svc.Create(ctx, "booking-1", req)

		assert.True(t, failure.IsConflict(err))
	})
}

func TestPaymentService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the live session", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Delete(gomock.Any(), "room-1").Return(true, nil)

		assert.NoError(t, f.svc.Close(ctx, "booking-1"))
	})

	t.Run("a second close reports the missing session", func(t *testing.T) {
		f := newFixture(t)

		f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Delete(gomock.Any(), "room-1").Return(false, nil)

		err := f.svc.Close(ctx, "booking-1")

		assert.Equal(t, 400, failure.GetCode(err))
	})
}
