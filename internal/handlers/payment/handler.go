package payment

import (
	"net/http"

	"pgnest/infras/otel"
	bookingService "pgnest/internal/domains/booking/service"
	"pgnest/internal/domains/payment/model/dto"
	"pgnest/internal/domains/payment/service"
	"pgnest/shared/constant"
	"pgnest/shared/validator"
	"pgnest/transport/http/middleware"
	"pgnest/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service        service.Payment
	bookingService bookingService.Booking
	otel           otel.Otel
}

func New(service service.Payment, bookingService bookingService.Booking, otel otel.Otel) Handler {
	return Handler{
		service:        service,
		bookingService: bookingService,
		otel:           otel,
	}
}

// Router registers the payment-session routes. Mounted by the booking
// router under /bookings/{id}/payment.
func (handler *Handler) Router(router chi.Router, mw middleware.App) {
	router.Get("/", handler.GetPaymentSession)
	router.With(mw.RequireAdmin).Post("/", handler.CreatePaymentSession)
	router.With(mw.RequireAdmin).Delete("/", handler.ClosePaymentSession)
	router.With(mw.RequireAdmin).Post("/confirm", handler.ConfirmPayment)
}

// GetPaymentSession reads the live payment session for a booking.
// @Summary Get the active payment session
// @Description Return the live payment session for the booking's room, including remaining TTL.
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.PaymentSessionResponse] "Payment session"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/payment [get]
// @Security BearerAuth
func (handler *Handler) GetPaymentSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPaymentSession")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.GetActive(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment session")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// CreatePaymentSession opens a payment session for a booking's room.
// @Summary Create a payment session
// @Description Reserve a time-boxed payment session for the booking's room. Fails if one is already live.
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CreatePaymentRequest true "Payment Session Request"
// @Success 201 {object} response.Message "Payment session created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/payment [post]
// @Security BearerAuth
func (handler *Handler) CreatePaymentSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreatePaymentSession")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CreatePaymentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create payment session")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusCreated, "Payment session created")
}

// ClosePaymentSession deletes the live payment session for a booking.
// @Summary Close the payment session
// @Description Delete the live payment session for the booking's room. Reports a client error when none is live.
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Payment session closed"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/payment [delete]
// @Security BearerAuth
func (handler *Handler) ClosePaymentSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ClosePaymentSession")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.service.Close(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to close payment session")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Payment session closed")
}

// ConfirmPayment records a completed payment for an accepted booking.
// @Summary Confirm payment
// @Description Record payment for an accepted booking: sets the payment timestamp, marks the room paid and drops the session.
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/payment/confirm [post]
// @Security BearerAuth
func (handler *Handler) ConfirmPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConfirmPayment")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.bookingService.ConfirmPayment(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to confirm payment")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
