package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"pgnest/infras/otel"
	"pgnest/infras/postgres"
	"pgnest/internal/domains/occupant/model"
	gDto "pgnest/shared/dto"
	gRepo "pgnest/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Occupant interface {
	InsertBulkTx(ctx context.Context, tx *sqlx.Tx, models []model.Occupant) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Occupant, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	DeleteTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Occupant]
}

func New(db *postgres.Connection, otel otel.Otel) Occupant {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Occupant](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
