package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"pgnest/infras/otel"
	"pgnest/infras/postgres"
	"pgnest/internal/domains/booking/model"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	"pgnest/shared/logger"
	gRepo "pgnest/shared/repository"

	"github.com/jmoiron/sqlx"
)

const listQuery = `SELECT bookings.*,
		rooms.name AS room_name,
		properties.name AS property_name,
		users.name AS user_name,
		users.address AS user_address,
		(SELECT COUNT(occupants.id) FROM occupants WHERE occupants.booking_id = bookings.id) AS occupant_count
	FROM bookings
	JOIN rooms ON rooms.id = bookings.room_id
	JOIN properties ON properties.id = rooms.property_id
	JOIN users ON users.id = bookings.user_id`

type Booking interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	List(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.ListRow, error)
	CountList(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// List returns the joined listing projection. Ordering is fixed to
// newest-first by request time regardless of the derived status, so
// paging stays stable while transitions land.
func (repo *repositoryImpl) List(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.ListRow, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.List")
	defer scope.End()

	where, args := repo.BuildWhereClause(ctx, filter)

	pagination := ""

	if params.Page > 0 && params.Limit > 0 {
		args["limit"] = params.Limit
		args["offset"] = (params.Page - 1) * params.Limit

		pagination = "LIMIT :limit OFFSET :offset"
	}

	query := fmt.Sprintf("%s %s ORDER BY bookings.created_at DESC %s", listQuery, where, pagination)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var rows []model.ListRow

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return rows, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	err = prepare.SelectContext(ctx, &rows, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return rows, fmt.Errorf("failed to list bookings (%s): %w", model.EntityName, err)
	}

	return rows, nil
}

// CountList counts over the same joined set List reads from, so totals
// and pages always agree even when the filter touches joined columns.
func (repo *repositoryImpl) CountList(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CountList")
	defer scope.End()

	where, args := repo.BuildWhereClause(ctx, filter)

	query := fmt.Sprintf(`SELECT COUNT(bookings.id)
	FROM bookings
	JOIN rooms ON rooms.id = bookings.room_id
	JOIN properties ON properties.id = rooms.property_id
	JOIN users ON users.id = bookings.user_id %s`, where)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var count int

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	err = prepare.GetContext(ctx, &count, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to count bookings (%s): %w", model.EntityName, err)
	}

	return count, nil
}
