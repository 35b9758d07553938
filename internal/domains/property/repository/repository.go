package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"pgnest/infras/otel"
	"pgnest/infras/postgres"
	"pgnest/internal/domains/property/model"
	gDto "pgnest/shared/dto"
	gRepo "pgnest/shared/repository"
)

type Property interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Property, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Property]
}

func New(db *postgres.Connection, otel otel.Otel) Property {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Property](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
