//go:build wireinject
// +build wireinject

package di

import (
	"pgnest/config"
	"pgnest/infras/jwt"
	"pgnest/infras/kafka"
	"pgnest/infras/otel"
	"pgnest/infras/postgres"
	"pgnest/infras/redis"
	"pgnest/internal/events"
	"pgnest/internal/worker"
	"pgnest/shared/cache"
	"pgnest/transport/http"
	"pgnest/transport/http/middleware"
	"pgnest/transport/http/router"

	bookingRepository "pgnest/internal/domains/booking/repository"
	bookingService "pgnest/internal/domains/booking/service"
	occupantRepository "pgnest/internal/domains/occupant/repository"
	paymentService "pgnest/internal/domains/payment/service"
	paymentStore "pgnest/internal/domains/payment/store"
	propertyRepository "pgnest/internal/domains/property/repository"
	roomRepository "pgnest/internal/domains/room/repository"
	userRepository "pgnest/internal/domains/user/repository"

	bookingHandler "pgnest/internal/handlers/booking"
	paymentHandler "pgnest/internal/handlers/payment"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	postgres.NewTransactor,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.New,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	events.NewEmitter,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	occupantRepository.New,
	roomRepository.New,
	propertyRepository.New,
	userRepository.New,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentStore.New,
	paymentService.New,
)

var domains = wire.NewSet(
	bookingDomain,
	paymentDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	bookingHandler.New,
	paymentHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeRetentionWorker() *worker.Retention {
	wire.Build(
		configurations,
		wire.NewSet(postgres.New, otel.New),
		bookingRepository.New,
		worker.NewRetention,
	)

	return &worker.Retention{}
}
