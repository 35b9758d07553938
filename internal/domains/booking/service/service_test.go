package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"pgnest/config"
	otelMocks "pgnest/infras/otel/mocks"
	postgresMocks "pgnest/infras/postgres/mocks"
	bookingMocks "pgnest/internal/domains/booking/mocks"
	"pgnest/internal/domains/booking/model"
	"pgnest/internal/domains/booking/model/dto"
	"pgnest/internal/domains/booking/service"
	occupantMocks "pgnest/internal/domains/occupant/mocks"
	paymentMocks "pgnest/internal/domains/payment/mocks"
	paymentModel "pgnest/internal/domains/payment/model"
	propertyMocks "pgnest/internal/domains/property/mocks"
	propertyModel "pgnest/internal/domains/property/model"
	roomMocks "pgnest/internal/domains/room/mocks"
	roomModel "pgnest/internal/domains/room/model"
	userMocks "pgnest/internal/domains/user/mocks"
	"pgnest/internal/events"
	"pgnest/shared/cache"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	"pgnest/shared/failure"
	gModel "pgnest/shared/model"
	"pgnest/shared/timezone"
)

// stubCache always misses so services run their full read path. Cache
// writes happen on goroutines the test cannot join, so a plain stub
// keeps the tests deterministic.
type stubCache struct{}

func (stubCache) Save(context.Context, string, any, int) error { return nil }
func (stubCache) Get(context.Context, string, any) error       { return cache.CacheNil }
func (stubCache) Delete(context.Context, string) error         { return nil }
func (stubCache) Clear(context.Context, string) error          { return nil }

// stubEmitter swallows events for the same reason.
type stubEmitter struct{}

func (stubEmitter) Emit(context.Context, events.BookingEvent) {}

type fixture struct {
	repo         *bookingMocks.MockBooking
	occupantRepo *occupantMocks.MockOccupant
	roomRepo     *roomMocks.MockRoom
	propertyRepo *propertyMocks.MockProperty
	userRepo     *userMocks.MockUser
	store        *paymentMocks.MockStore
	tx           *postgresMocks.MockTransactor
	svc          service.Booking
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)

	f := &fixture{
		repo:         bookingMocks.NewMockBooking(ctrl),
		occupantRepo: occupantMocks.NewMockOccupant(ctrl),
		roomRepo:     roomMocks.NewMockRoom(ctrl),
		propertyRepo: propertyMocks.NewMockProperty(ctrl),
		userRepo:     userMocks.NewMockUser(ctrl),
		store:        paymentMocks.NewMockStore(ctrl),
		tx:           postgresMocks.NewMockTransactor(ctrl),
	}

	f.svc = service.New(
		f.repo,
		f.occupantRepo,
		f.roomRepo,
		f.propertyRepo,
		f.userRepo,
		f.store,
		f.tx,
		stubEmitter{},
		&config.Config{},
		stubCache{},
		otelMocks.NewOtel(),
	)

	return f
}

// expectTransaction runs the transactional closure against a nil tx so
// the repository expectations inside it are exercised.
func (f *fixture) expectTransaction() *gomock.Call {
	return f.tx.EXPECT().
		WithTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(*sqlx.Tx) error) error {
			return fn(nil)
		})
}

func userContext(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func pendingBooking() model.Booking {
	return model.Booking{
		ID:           "booking-1",
		RoomID:       "room-1",
		UserID:       "user-1",
		AdminID:      "admin-1",
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DurationDays: 30,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "user-1",
			ModifiedBy: "user-1",
		},
	}
}

func acceptedBooking() model.Booking {
	booking := pendingBooking()
	booking.AcceptedAt = sql.NullTime{Time: timezone.Now(), Valid: true}
	booking.AcceptedBy = sql.NullString{String: "admin-1", Valid: true}

	return booking
}

func availableRoom() roomModel.Room {
	return roomModel.Room{
		ID:         "room-1",
		PropertyID: "property-1",
		Name:       "Room A",
		Rent:       5000,
	}
}

func createRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		RoomID:       "room-1",
		StartDate:    "2026-04-01",
		DurationDays: 30,
		Occupants: []dto.OccupantRequest{
			{FullName: "Asep Sunandar", Gender: "male", Age: 27, IsPrimary: true},
		},
	}
}

func TestBookingService_Create(t *testing.T) {
	ctx := userContext("user-1", constant.RoleUser)

	t.Run("creates booking and occupants in one transaction", func(t *testing.T) {
		f := newFixture(t)

		f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)
		f.propertyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(propertyModel.Property{ID: "property-1", AdminID: "admin-1"}, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		f.expectTransaction()
		f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, booking model.Booking) error {
				assert.Equal(t, "room-1", booking.RoomID)
				assert.Equal(t, "user-1", booking.UserID)
				assert.Equal(t, "admin-1", booking.AdminID)

				return nil
			})
		f.occupantRepo.EXPECT().InsertBulkTx(gomock.Any(), gomock.Any(), gomock.Len(1)).Return(nil)

		res, err := f.svc.Create(ctx, createRequest())

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, res.Status)
		assert.Equal(t, "admin-1", res.AdminID)
	})

	t.Run("rejects a second active booking for the same room and user", func(t *testing.T) {
		f := newFixture(t)

		f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)
		f.propertyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(propertyModel.Property{ID: "property-1", AdminID: "admin-1"}, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		_, err := f.svc.Create(ctx, createRequest())

		assert.True(t, failure.IsConflict(err))
	})

	t.Run("rejects an unknown room", func(t *testing.T) {
		f := newFixture(t)

		f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(roomModel.Room{}, nil)

		_, err := f.svc.Create(ctx, createRequest())

		assert.True(t, failure.IsNotFound(err))
	})
}

func TestBookingService_Accept(t *testing.T) {
	ctx := userContext("admin-1", constant.RoleAdmin)

	acceptReq := func(amount float64, dunning int) dto.SetStatusRequest {
		return dto.SetStatusRequest{
			Status:      model.StatusAccepted,
			Amount:      amount,
			DunningDays: dunning,
			Message:     "first month rent",
		}
	}

	t.Run("writes session then commits ledger and room atomically", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)

		f.store.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, session paymentModel.Session) (bool, error) {
				assert.Equal(t, "room-1", session.RoomID)
				assert.Equal(t, float64(5000), session.Amount)
				assert.Equal(t, 5, session.PaymentDunning)

				return true, nil
			})

		f.expectTransaction()
		f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Contains(t, fields, model.FieldAcceptedAt)
				assert.Equal(t, "admin-1", fields[model.FieldAcceptedBy])

				return nil
			})
		f.roomRepo.EXPECT().
			MarkBookedTx(gomock.Any(), gomock.Any(), "room-1", "user-1", model.RoomStatusPaymentPending, "admin-1").
			Return(true, nil)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)

		res, err := f.svc.SetStatus(ctx, "booking-1", acceptReq(5000, 5))

		assert.NoError(t, err)
		assert.Equal(t, model.StatusAccepted, res.Status)
	})

	t.Run("rejects zero amount before touching any store", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", acceptReq(0, 5))

		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("rejects negative dunning days", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", acceptReq(5000, -1))

		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("rejects an already finalized booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", acceptReq(5000, 5))

		assert.True(t, failure.IsConflict(err))
	})

	t.Run("losing the room race rolls back and drops the session", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)
		f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(true, nil)

		f.expectTransaction()
		f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.roomRepo.EXPECT().
			MarkBookedTx(gomock.Any(), gomock.Any(), "room-1", "user-1", model.RoomStatusPaymentPending, "admin-1").
			Return(false, nil)

		f.store.EXPECT().Delete(gomock.Any(), "room-1").Return(true, nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", acceptReq(5000, 5))

		assert.True(t, failure.IsConflict(err))
	})

	t.Run("rejects when a session is already live", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.roomRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableRoom(), nil)
		f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", acceptReq(5000, 5))

		assert.True(t, failure.IsConflict(err))
	})
}

func TestBookingService_Revoke(t *testing.T) {
	ctx := userContext("admin-1", constant.RoleAdmin)

	revokeReq := dto.SetStatusRequest{Status: model.StatusRevoked, Reason: "no payment"}

	t.Run("blocked while the payment session is live", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Exists(gomock.Any(), "room-1").Return(true, nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", revokeReq)

		assert.True(t, failure.IsConflict(err))
	})

	t.Run("succeeds after the session is gone and releases the room", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Exists(gomock.Any(), "room-1").Return(false, nil)

		f.expectTransaction()
		f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, "admin-1", fields[model.FieldRevokedBy])
				assert.Equal(t, "no payment", fields[model.FieldRevokedReason])

				return nil
			})
		f.roomRepo.EXPECT().ReleaseTx(gomock.Any(), gomock.Any(), "room-1", "admin-1").Return(nil)

		revoked := acceptedBooking()
		revoked.RevokedAt = sql.NullTime{Time: timezone.Now(), Valid: true}
		revoked.RevokedBy = sql.NullString{String: "admin-1", Valid: true}
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(revoked, nil)

		res, err := f.svc.SetStatus(ctx, "booking-1", revokeReq)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusRevoked, res.Status)
	})

	t.Run("rejects a booking that was never accepted", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", revokeReq)

		assert.True(t, failure.IsConflict(err))
	})
}

func TestBookingService_Decline(t *testing.T) {
	ctx := userContext("admin-1", constant.RoleAdmin)

	t.Run("declines a pending booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		declined := pendingBooking()
		declined.DeclinedAt = sql.NullTime{Time: timezone.Now(), Valid: true}
		declined.DeclinedBy = sql.NullString{String: "admin-1", Valid: true}
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(declined, nil)

		res, err := f.svc.SetStatus(ctx, "booking-1", dto.SetStatusRequest{Status: model.StatusDeclined})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusDeclined, res.Status)
	})

	t.Run("rejects a finalized booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)

		_, err := f.svc.SetStatus(ctx, "booking-1", dto.SetStatusRequest{Status: model.StatusDeclined})

		assert.True(t, failure.IsConflict(err))
	})
}

func TestBookingService_Cancel(t *testing.T) {
	t.Run("only the requester can cancel", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)

		_, err := f.svc.Cancel(userContext("user-2", constant.RoleUser), "booking-1", dto.CancelBookingRequest{Reason: "changed plans"})

		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("cancels a pending booking with a reason", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, "changed plans", fields[model.FieldCanceledReason])

				return nil
			})

		canceled := pendingBooking()
		canceled.CanceledAt = sql.NullTime{Time: timezone.Now(), Valid: true}
		canceled.CanceledBy = sql.NullString{String: "user-1", Valid: true}
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(canceled, nil)

		res, err := f.svc.Cancel(userContext("user-1", constant.RoleUser), "booking-1", dto.CancelBookingRequest{Reason: "changed plans"})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusCanceled, res.Status)
	})

	t.Run("rejects a finalized booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)

		_, err := f.svc.Cancel(userContext("user-1", constant.RoleUser), "booking-1", dto.CancelBookingRequest{Reason: "late"})

		assert.True(t, failure.IsConflict(err))
	})
}

func TestBookingService_ConfirmPayment(t *testing.T) {
	ctx := userContext("admin-1", constant.RoleAdmin)

	t.Run("records payment, marks the room paid and drops the session", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Exists(gomock.Any(), "room-1").Return(true, nil)

		f.expectTransaction()
		f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Contains(t, fields, model.FieldPaymentAt)

				return nil
			})
		f.roomRepo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, model.RoomStatusPaid, fields[roomModel.FieldBookingStatus])

				return nil
			})

		f.store.EXPECT().Delete(gomock.Any(), "room-1").Return(true, nil)

		paid := acceptedBooking()
		paid.PaymentAt = sql.NullTime{Time: timezone.Now(), Valid: true}
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paid, nil)

		res, err := f.svc.ConfirmPayment(ctx, "booking-1")

		assert.NoError(t, err)
		assert.NotNil(t, res.PaymentAt)
	})

	t.Run("rejects when no session is live", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(acceptedBooking(), nil)
		f.store.EXPECT().Exists(gomock.Any(), "room-1").Return(false, nil)

		_, err := f.svc.ConfirmPayment(ctx, "booking-1")

		assert.True(t, failure.IsConflict(err))
	})

	t.Run("rejects a double confirmation", func(t *testing.T) {
		f := newFixture(t)

		paid := acceptedBooking()
		paid.PaymentAt = sql.NullTime{Time: timezone.Now(), Valid: true}
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paid, nil)

		_, err := f.svc.ConfirmPayment(ctx, "booking-1")

		assert.True(t, failure.IsConflict(err))
	})
}

func TestBookingService_List(t *testing.T) {
	ctx := userContext("user-1", constant.RoleUser)

	t.Run("pages over the filtered set with a matching total", func(t *testing.T) {
		f := newFixture(t)

		rows := []model.ListRow{
			{Booking: pendingBooking(), RoomName: "Room A", PropertyName: "Kost Melati", OccupantCount: 1},
		}

		f.repo.EXPECT().CountList(gomock.Any(), gomock.Any()).Return(11, nil)
		f.repo.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(rows, nil)

		res, err := f.svc.List(ctx, gDto.QueryParams{Page: 2, Limit: 10}, service.ListQuery{
			UserID: "user-1",
			Status: model.StatusAll,
		})

		assert.NoError(t, err)
		assert.Equal(t, 11, res.Total)
		assert.Equal(t, 2, res.Page)
		assert.Equal(t, 10, res.PageSize)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, "Kost Melati", res.Items[0].PropertyName)
	})

	t.Run("attaches the remaining session TTL to accepted items", func(t *testing.T) {
		f := newFixture(t)

		rows := []model.ListRow{{Booking: acceptedBooking(), RoomName: "Room A"}}

		f.repo.EXPECT().CountList(gomock.Any(), gomock.Any()).Return(1, nil)
		f.repo.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(rows, nil)
		f.store.EXPECT().Get(gomock.Any(), "room-1").
			Return(paymentModel.Session{RoomID: "room-1"}, 604800*time.Second, nil)

		res, err := f.svc.List(ctx, gDto.QueryParams{Page: 1, Limit: 10}, service.ListQuery{UserID: "user-1"})

		assert.NoError(t, err)
		if assert.NotNil(t, res.Items[0].PaymentTTL) {
			assert.Equal(t, int64(604800), *res.Items[0].PaymentTTL)
		}
	})

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.List(ctx, gDto.QueryParams{Page: 1, Limit: 10}, service.ListQuery{
			UserID: "user-1",
			Status: "confirmed",
		})

		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	t.Run("non-admin cannot read another user's booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)

		_, err := f.svc.Get(userContext("user-2", constant.RoleUser), "booking-1")

		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("admin can read any booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)

		res, err := f.svc.Get(userContext("admin-1", constant.RoleAdmin), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, "booking-1", res.ID)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := f.svc.Get(userContext("user-1", constant.RoleUser), "missing")

		assert.True(t, failure.IsNotFound(err))
	})
}
