package booking

import (
	"net/http"

	"pgnest/infras/otel"
	"pgnest/internal/domains/booking/model/dto"
	"pgnest/internal/domains/booking/service"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	"pgnest/shared/validator"
	"pgnest/transport/http/middleware"
	"pgnest/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router, mw middleware.App) {
	router.Post("/", handler.CreateBooking)
	router.With(mw.RequireAdmin).Get("/", handler.GetBookings)
	router.Get("/mybookings", handler.GetMyBookings)
	router.Get("/{id}", handler.GetBookingByID)
	router.With(mw.RequireAdmin).Patch("/{id}/status", handler.SetBookingStatus)
	router.Patch("/{id}/cancel", handler.CancelBooking)
}

// CreateBooking opens a new booking request for a room.
// @Summary Create a new booking
// @Description Create a booking request for a room together with its occupant roster.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created by user " + user)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetBookings lists bookings across all users (admin scope).
// @Summary List bookings
// @Description List all bookings with pagination, status filter and free-text search.
// @Tags Booking
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter (pending, accepted, declined, canceled, revoked, all)"
// @Param search query string false "Search against property name, requester name or address"
// @Success 200 {object} response.Data[dto.ListBookingsResponse] "Bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(writer http.ResponseWriter, request *http.Request) {
	handler.list(writer, request, true)
}

// GetMyBookings lists the caller's own bookings.
// @Summary List my bookings
// @Description List the caller's bookings with pagination and status filter.
// @Tags Booking
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter (pending, accepted, declined, canceled, revoked, all)"
// @Param search query string false "Search against property name"
// @Success 200 {object} response.Data[dto.ListBookingsResponse] "Bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(writer http.ResponseWriter, request *http.Request) {
	handler.list(writer, request, false)
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request, adminScope bool) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	query := service.ListQuery{
		UserID:     user,
		Status:     request.URL.Query().Get(constant.RequestParamStatus),
		Search:     request.URL.Query().Get(constant.RequestParamSearch),
		AdminScope: adminScope,
	}

	res, err := handler.service.List(ctx, queryParams, query)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetBookingByID fetches one booking.
// @Summary Get a booking
// @Description Get a booking by id. Non-admin callers can only fetch their own bookings.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// SetBookingStatus applies an admin transition (accept, decline, revoke).
// @Summary Set booking status
// @Description Apply a status transition to a booking. Accept requires payment terms.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.SetStatusRequest true "Status Transition Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) SetBookingStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetBookingStatus")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.SetStatusRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.SetStatus(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set booking status")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking " + id + " transitioned to " + req.Status)

	response.WithJSON(writer, http.StatusOK, res)
}

// CancelBooking cancels a pending booking on behalf of its requester.
// @Summary Cancel a booking
// @Description Cancel a booking. Only the requester may cancel, and only before any other transition.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelBookingRequest true "Cancel Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cancel [patch]
// @Security BearerAuth
func (handler *Handler) CancelBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CancelBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Cancel(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel booking")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
