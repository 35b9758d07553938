package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"pgnest/infras/otel"
	bookingModel "pgnest/internal/domains/booking/model"
	bookingRepo "pgnest/internal/domains/booking/repository"
	"pgnest/internal/domains/payment/model"
	"pgnest/internal/domains/payment/model/dto"
	"pgnest/internal/domains/payment/store"
	"pgnest/shared"
	"pgnest/shared/constant"
	"pgnest/shared/failure"

	"github.com/rs/zerolog/log"
)

// Payment manages the time-boxed session reserved for an accepted
// booking. Every operation addresses the session through the booking,
// never through the room directly.
type Payment interface {
	GetActive(ctx context.Context, bookingID string) (dto.PaymentSessionResponse, error)
	Create(ctx context.Context, bookingID string, req dto.CreatePaymentRequest) error
	Close(ctx context.Context, bookingID string) error
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	store       store.Store
	otel        otel.Otel
}

func New(bookingRepo bookingRepo.Booking, store store.Store, otel otel.Otel) Payment {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		store:       store,
		otel:        otel,
	}
}

func (s *serviceImpl) GetActive(ctx context.Context, bookingID string) (res dto.PaymentSessionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.GetActive")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return res, err
	}

	session, ttl, err := s.store.Get(ctx, booking.RoomID)
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return res, failure.NotFound("no active payment session") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to get payment session")

		return res, fmt.Errorf("failed to get payment session: %w", err)
	}

	res.FromSession(session, ttl)

	return res, nil
}

func (s *serviceImpl) Create(ctx context.Context, bookingID string, req dto.CreatePaymentRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	created, err := s.store.Create(ctx, model.Session{
		RoomID:         booking.RoomID,
		Amount:         req.Amount,
		PaymentDunning: req.DunningDays,
		Message:        req.Message,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create payment session")

		return fmt.Errorf("failed to create payment session: %w", err)
	}

	if !created {
		return failure.Conflict("a payment session is already active for this room") // nolint:wrapcheck
	}

	return nil
}

// Close deletes the live session for the booking's room. A second
// close reports the absence as a client error rather than succeeding
// silently, so callers can distinguish the two.
func (s *serviceImpl) Close(ctx context.Context, bookingID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.Close")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	existed, err := s.store.Delete(ctx, booking.RoomID)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete payment session")

		return fmt.Errorf("failed to delete payment session: %w", err)
	}

	if !existed {
		return failure.BadRequestFromString("no active payment session") // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) getBooking(ctx context.Context, id string) (bookingModel.Booking, error) {
	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(id, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}
