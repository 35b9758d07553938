package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"pgnest/infras/otel"
	"pgnest/infras/postgres"
	"pgnest/internal/domains/room/model"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	"pgnest/shared/logger"
	gRepo "pgnest/shared/repository"
	"pgnest/shared/timezone"

	"github.com/jmoiron/sqlx"
)

type Room interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Room, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	MarkBookedTx(ctx context.Context, tx *sqlx.Tx, roomID, bookedBy, status, actor string) (bool, error)
	ReleaseTx(ctx context.Context, tx *sqlx.Tx, roomID, actor string) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Room]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Room {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Room](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// MarkBookedTx flips the availability pair inside the caller's
// transaction, but only when the room is still free. The compare-and-
// swap in the WHERE clause is what keeps two concurrent accepts on the
// same room from both succeeding; the returned bool reports whether
// this call won the room.
func (repo *repositoryImpl) MarkBookedTx(ctx context.Context, tx *sqlx.Tx, roomID, bookedBy, status, actor string) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.MarkBookedTx")
	defer scope.End()

	query := `UPDATE rooms
		SET booked_by = :booked_by, booking_status = :booking_status, modified_at = :modified_at, modified_by = :modified_by
		WHERE id = :id AND booked_by IS NULL AND booking_status = ''`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := tx.NamedExecContext(ctx, query, map[string]any{
		"id":             roomID,
		"booked_by":      bookedBy,
		"booking_status": status,
		"modified_at":    timezone.Now(),
		"modified_by":    actor,
	})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to mark room booked (%s): %w", model.EntityName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to read affected rows (%s): %w", model.EntityName, err)
	}

	return affected == 1, nil
}

// ReleaseTx clears the availability pair inside the caller's
// transaction, returning the room to the available state.
func (repo *repositoryImpl) ReleaseTx(ctx context.Context, tx *sqlx.Tx, roomID, actor string) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.ReleaseTx")
	defer scope.End()

	query := `UPDATE rooms
		SET booked_by = NULL, booking_status = '', modified_at = :modified_at, modified_by = :modified_by
		WHERE id = :id`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err := tx.NamedExecContext(ctx, query, map[string]any{
		"id":          roomID,
		"modified_at": timezone.Now(),
		"modified_by": actor,
	})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to release room (%s): %w", model.EntityName, err)
	}

	return nil
}
