package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"slices"

	"pgnest/config"
	"pgnest/infras/otel"
	"pgnest/infras/postgres"
	"pgnest/internal/domains/booking/model"
	"pgnest/internal/domains/booking/model/dto"
	"pgnest/internal/domains/booking/repository"
	occupantRepo "pgnest/internal/domains/occupant/repository"
	paymentModel "pgnest/internal/domains/payment/model"
	paymentStore "pgnest/internal/domains/payment/store"
	propertyModel "pgnest/internal/domains/property/model"
	propertyRepo "pgnest/internal/domains/property/repository"
	roomModel "pgnest/internal/domains/room/model"
	roomRepo "pgnest/internal/domains/room/repository"
	userModel "pgnest/internal/domains/user/model"
	userRepo "pgnest/internal/domains/user/repository"
	"pgnest/internal/events"
	"pgnest/shared"
	"pgnest/shared/cache"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	"pgnest/shared/failure"
	"pgnest/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking   = "booking:get"
	cacheListBooking  = "booking:list"
	cacheCountBooking = "booking:count"
)

// ListQuery scopes and filters a booking listing. AdminScope widens the
// search to requester name/address and lifts the per-user restriction.
type ListQuery struct {
	UserID     string
	Status     string
	Search     string
	AdminScope bool
}

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	SetStatus(ctx context.Context, id string, req dto.SetStatusRequest) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (dto.BookingResponse, error)
	ConfirmPayment(ctx context.Context, id string) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	List(ctx context.Context, params gDto.QueryParams, query ListQuery) (dto.ListBookingsResponse, error)
}

type serviceImpl struct {
	repo         repository.Booking
	occupantRepo occupantRepo.Occupant
	roomRepo     roomRepo.Room
	propertyRepo propertyRepo.Property
	userRepo     userRepo.User
	store        paymentStore.Store
	tx           postgres.Transactor
	emitter      events.Emitter
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(
	repo repository.Booking,
	occupantRepo occupantRepo.Occupant,
	roomRepo roomRepo.Room,
	propertyRepo propertyRepo.Property,
	userRepo userRepo.User,
	store paymentStore.Store,
	tx postgres.Transactor,
	emitter events.Emitter,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:         repo,
		occupantRepo: occupantRepo,
		roomRepo:     roomRepo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		store:        store,
		tx:           tx,
		emitter:      emitter,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	userExists, err := s.userRepo.Exist(ctx, shared.FilterByID(user, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return res, fmt.Errorf("failed to check if user exists: %w", err)
	}

	if !userExists {
		return res, failure.BadRequestFromString("user does not exist") // nolint:wrapcheck
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	property, err := s.propertyRepo.Get(ctx, shared.FilterByID(room.PropertyID, propertyModel.FieldID, propertyModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get property")

		return res, fmt.Errorf("failed to get property: %w", err)
	}

	if property.ID == constant.Empty {
		return res, failure.NotFound("property not found") // nolint:wrapcheck
	}

	booking, occupants, err := req.ToModel(user, property.AdminID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse booking request")

		return res, failure.BadRequestFromString(fmt.Sprintf("invalid start date: %v", err)) // nolint:wrapcheck
	}

	active, err := s.repo.Exist(ctx, model.ActiveFilter(booking.RoomID, booking.UserID))
	if err != nil {
		log.Error().Err(err).Msg("failed to check active booking")

		return res, fmt.Errorf("failed to check active booking: %w", err)
	}

	if active {
		return res, failure.Conflict("an active booking already exists for this room") // nolint:wrapcheck
	}

	err = s.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.InsertTx(ctx, tx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		if err := s.occupantRepo.InsertBulkTx(ctx, tx, occupants); err != nil {
			return fmt.Errorf("failed to create occupants: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, err
	}

	s.afterMutation(ctx, booking.ID)
	s.emit(ctx, events.TypeBookingCreated, booking, user)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) SetStatus(ctx context.Context, id string, req dto.SetStatusRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.SetStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	switch req.Status {
	case model.StatusAccepted:
		err = s.accept(ctx, booking, actor, req)
	case model.StatusDeclined:
		err = s.decline(ctx, booking, actor)
	case model.StatusRevoked:
		err = s.revoke(ctx, booking, actor, req.Reason)
	default:
		err = failure.BadRequestFromString(fmt.Sprintf("unknown status transition: %s", req.Status))
	}

	if err != nil {
		return res, err
	}

	updated, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	s.afterMutation(ctx, id)
	s.emit(ctx, events.TypeBookingStatusChanged, updated, actor)

	res.FromModel(updated)

	return res, nil
}

// accept validates payment terms, writes the payment session first and
// only then commits the ledger/room pair in one transaction. The
// session write is deliberately outside the transaction: if the commit
// never happens the orphan key has no effect and expires on its own.
func (s *serviceImpl) accept(ctx context.Context, booking model.Booking, actor string, req dto.SetStatusRequest) error {
	if booking.Finalized() {
		return failure.Conflict("booking already finalized") // nolint:wrapcheck
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return failure.NotFound("room not found") // nolint:wrapcheck
	}

	if !room.Available() {
		return failure.Conflict("room is already booked") // nolint:wrapcheck
	}

	if req.Amount <= 0 {
		return failure.BadRequestFromString("payment amount must be a positive number") // nolint:wrapcheck
	}

	if req.DunningDays <= 0 {
		return failure.BadRequestFromString("payment dunning days must be a positive integer") // nolint:wrapcheck
	}

	created, err := s.store.Create(ctx, paymentModel.Session{
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

	now := timezone.Now()

	err = s.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		fields := map[string]any{
			model.FieldAcceptedAt:    now,
			model.FieldAcceptedBy:    actor,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: actor,
		}
		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		won, err := s.roomRepo.MarkBookedTx(ctx, tx, booking.RoomID, booking.UserID, model.RoomStatusPaymentPending, actor)
		if err != nil {
			return fmt.Errorf("failed to mark room booked: %w", err)
		}

		if !won {
			return failure.Conflict("room is already booked") // nolint:wrapcheck
		}

		return nil
	})
	if err != nil {
		// Best effort: the transaction aborted, so drop the session we
		// just wrote. If this fails too the key self-heals via TTL.
		if _, delErr := s.store.Delete(ctx, booking.RoomID); delErr != nil {
			log.Error().Err(delErr).Str("room_id", booking.RoomID).Msg("failed to clean up payment session after aborted accept")
		}

		log.Error().Err(err).Msg("failed to accept booking")

		return err
	}

	return nil
}

func (s *serviceImpl) decline(ctx context.Context, booking model.Booking, actor string) error {
	if booking.Finalized() {
		return failure.Conflict("booking already finalized") // nolint:wrapcheck
	}

	now := timezone.Now()
	fields := map[string]any{
		model.FieldDeclinedAt:    now,
		model.FieldDeclinedBy:    actor,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: actor,
	}

	if err := s.repo.Update(ctx, fields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to decline booking")

		return fmt.Errorf("failed to decline booking: %w", err)
	}

	return nil
}

func (s *serviceImpl) revoke(ctx context.Context, booking model.Booking, actor, reason string) error {
	if !booking.AcceptedBy.Valid {
		return failure.Conflict("booking was never accepted") // nolint:wrapcheck
	}

	if booking.RevokedBy.Valid || booking.CanceledBy.Valid {
		return failure.Conflict("booking already finalized") // nolint:wrapcheck
	}

	live, err := s.store.Exists(ctx, booking.RoomID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check payment session")

		return fmt.Errorf("failed to check payment session: %w", err)
	}

	if live {
		return failure.Conflict("an active payment session blocks revocation") // nolint:wrapcheck
	}

	now := timezone.Now()

	err = s.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		fields := map[string]any{
			model.FieldRevokedAt:     now,
			model.FieldRevokedBy:     actor,
			model.FieldRevokedReason: reason,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: actor,
		}
		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		if err := s.roomRepo.ReleaseTx(ctx, tx, booking.RoomID, actor); err != nil {
			return fmt.Errorf("failed to release room: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to revoke booking")

		return err
	}

	return nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.UserID != actor {
		return res, failure.Forbidden("only the requester can cancel a booking") // nolint:wrapcheck
	}

	if booking.Finalized() {
		return res, failure.Conflict("booking already finalized") // nolint:wrapcheck
	}

	now := timezone.Now()
	fields := map[string]any{
		model.FieldCanceledAt:     now,
		model.FieldCanceledBy:     actor,
		model.FieldCanceledReason: req.Reason,
		constant.FieldModifiedAt:  now,
		constant.FieldModifiedBy:  actor,
	}

	if err = s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to cancel booking")

		return res, fmt.Errorf("failed to cancel booking: %w", err)
	}

	updated, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	s.afterMutation(ctx, id)
	s.emit(ctx, events.TypeBookingStatusChanged, updated, actor)

	res.FromModel(updated)

	return res, nil
}

// ConfirmPayment closes out an accepted booking's payment: records the
// payment timestamp, flips the room label to paid and drops the
// session. Requires a live session so an expired reservation cannot be
// confirmed after the fact.
func (s *serviceImpl) ConfirmPayment(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ConfirmPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if !booking.AcceptedBy.Valid {
		return res, failure.Conflict("booking was never accepted") // nolint:wrapcheck
	}

	if booking.PaymentAt.Valid {
		return res, failure.Conflict("payment already confirmed") // nolint:wrapcheck
	}

	live, err := s.store.Exists(ctx, booking.RoomID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check payment session")

		return res, fmt.Errorf("failed to check payment session: %w", err)
	}

	if !live {
		return res, failure.Conflict("no active payment session") // nolint:wrapcheck
	}

	now := timezone.Now()

	err = s.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		fields := map[string]any{
			model.FieldPaymentAt:     now,
			constant.FieldModifiedAt: now,
			constant.FieldModifiedBy: actor,
		}
		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		roomFields := map[string]any{
			roomModel.FieldBookingStatus: model.RoomStatusPaid,
			constant.FieldModifiedAt:     now,
			constant.FieldModifiedBy:     actor,
		}
		if err := s.roomRepo.UpdateTx(ctx, tx, roomFields, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName)); err != nil {
			return fmt.Errorf("failed to update room: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to confirm payment")

		return res, err
	}

	if _, err := s.store.Delete(ctx, booking.RoomID); err != nil {
		log.Error().Err(err).Str("room_id", booking.RoomID).Msg("failed to delete payment session after confirmation")
	}

	updated, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	s.afterMutation(ctx, id)
	s.emit(ctx, events.TypeBookingStatusChanged, updated, actor)

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	var cached dto.BookingResponse
	if cacheErr := s.cache.Get(ctx, cacheKey, &cached); cacheErr == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		if role != constant.RoleAdmin && cached.UserID != user {
			return res, failure.Forbidden("booking belongs to another user") // nolint:wrapcheck
		}

		return cached, nil
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if role != constant.RoleAdmin && booking.UserID != user {
		return res, failure.Forbidden("booking belongs to another user") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func(res dto.BookingResponse) {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}(res)

	return res, nil
}

func (s *serviceImpl) List(ctx context.Context, params gDto.QueryParams, query ListQuery) (res dto.ListBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.List")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter, err := buildListFilter(query)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKeyWithQuery(cacheListBooking, params, filter)

	if cacheErr := s.cache.Get(ctx, cacheKey, &res); cacheErr == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.repo.CountList(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	rows, err := s.repo.List(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list bookings")

		return res, fmt.Errorf("failed to list bookings: %w", err)
	}

	res.FromModels(rows, total, params.Page, params.Limit)
	s.attachPaymentTTL(ctx, rows, &res)

	go func(res dto.ListBookingsResponse) {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}(res)

	return res, nil
}

// attachPaymentTTL decorates accepted-but-unpaid items with the
// remaining payment session lifetime, when one is live.
func (s *serviceImpl) attachPaymentTTL(ctx context.Context, rows []model.ListRow, res *dto.ListBookingsResponse) {
	for i, row := range rows {
		if row.Status() != model.StatusAccepted || row.PaymentAt.Valid {
			continue
		}

		_, ttl, err := s.store.Get(ctx, row.RoomID)
		if err != nil {
			continue
		}

		seconds := int64(ttl.Seconds())
		res.Items[i].PaymentTTL = &seconds
	}
}

func buildListFilter(query ListQuery) (gDto.FilterGroup, error) {
	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	if query.Status != constant.Empty && query.Status != model.StatusAll {
		if !slices.Contains(model.Statuses, query.Status) {
			return filter, failure.BadRequestFromString(fmt.Sprintf("unknown status filter: %s", query.Status)) // nolint:wrapcheck
		}

		statusFilter, ok := model.StatusFilter(query.Status)
		if ok {
			filter.Filters = append(filter.Filters, statusFilter)
		}
	}

	if !query.AdminScope {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldUserID,
			Table:    model.TableName,
			Operator: gDto.FilterOperatorEq,
			Value:    query.UserID,
		})
	}

	if query.Search != constant.Empty {
		search := gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorOr,
			Filters: []any{
				gDto.Filter{ArgName: "property_name", Field: propertyModel.FieldName, Table: propertyModel.TableName, Operator: gDto.FilterOperatorLike, Value: query.Search},
			},
		}

		if query.AdminScope {
			search.Filters = append(search.Filters,
				gDto.Filter{ArgName: "search_user_name", Field: userModel.FieldName, Table: userModel.TableName, Operator: gDto.FilterOperatorLike, Value: query.Search},
				gDto.Filter{ArgName: "search_user_address", Field: userModel.FieldAddress, Table: userModel.TableName, Operator: gDto.FilterOperatorLike, Value: query.Search},
			)
		}

		filter.Filters = append(filter.Filters, search)
	}

	return filter, nil
}

func (s *serviceImpl) getBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) afterMutation(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheListBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

func (s *serviceImpl) emit(ctx context.Context, eventType string, booking model.Booking, actor string) {
	go func() {
		c := context.WithoutCancel(ctx)

		s.emitter.Emit(c, events.BookingEvent{
			Type:      eventType,
			BookingID: booking.ID,
			RoomID:    booking.RoomID,
			UserID:    booking.UserID,
			Status:    booking.Status(),
			ActorID:   actor,
		})
	}()
}
