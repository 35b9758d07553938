package store

//go:generate go run go.uber.org/mock/mockgen -source=./store.go -destination=../mocks/store_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pgnest/infras/otel"
	"pgnest/internal/domains/payment/model"
	"pgnest/shared/constant"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	otelScopeName       = "paymentstore"
	otelKeyAttributeKey = "session.key"
)

// ErrNoSession is returned when no live session exists for a room.
var ErrNoSession = errors.New("no active payment session")

// Store is the time-boxed payment-session store. Sessions are written
// with a TTL of the dunning period and disappear on their own; nothing
// outside this package touches the underlying keys.
type Store interface {
	Create(ctx context.Context, session model.Session) (bool, error)
	Get(ctx context.Context, roomID string) (model.Session, time.Duration, error)
	Delete(ctx context.Context, roomID string) (bool, error)
	Exists(ctx context.Context, roomID string) (bool, error)
}

type redisStore struct {
	client *redis.Client
	otel   otel.Otel
}

func New(client *redis.Client, ot otel.Otel) Store {
	return &redisStore{
		client: client,
		otel:   ot,
	}
}

// Create writes the session under the room's key with a TTL of the
// dunning period. Returns false without touching the store when a live
// session already holds the key.
func (s *redisStore) Create(ctx context.Context, session model.Session) (created bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	key := model.Key(session.RoomID)
	scope.SetAttribute(otelKeyAttributeKey, key)

	value, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payment session: %w", err)
	}

	ttl := time.Duration(session.PaymentDunning*constant.SecondsPerDay) * time.Second

	created, err = s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to create payment session")

		return false, fmt.Errorf("failed to create payment session: %w", err)
	}

	return created, nil
}

func (s *redisStore) Get(ctx context.Context, roomID string) (session model.Session, ttl time.Duration, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Get")
	defer scope.End()

	key := model.Key(roomID)
	scope.SetAttribute(otelKeyAttributeKey, key)

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return session, 0, ErrNoSession
	}

	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("key", key).Msg("failed to get payment session")

		return session, 0, fmt.Errorf("failed to get payment session: %w", err)
	}

	if err = json.Unmarshal([]byte(value), &session); err != nil {
		scope.TraceError(err)

		return session, 0, fmt.Errorf("failed to unmarshal payment session: %w", err)
	}

	ttl, err = s.client.TTL(ctx, key).Result()
	if err != nil {
		scope.TraceError(err)

		return session, 0, fmt.Errorf("failed to read payment session ttl: %w", err)
	}

	return session, ttl, nil
}

// Delete removes the session key and reports whether one existed, so
// callers can tell a real close from a no-op on an expired session.
func (s *redisStore) Delete(ctx context.Context, roomID string) (existed bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	key := model.Key(roomID)
	scope.SetAttribute(otelKeyAttributeKey, key)

	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete payment session")

		return false, fmt.Errorf("failed to delete payment session: %w", err)
	}

	return deleted > 0, nil
}

func (s *redisStore) Exists(ctx context.Context, roomID string) (exists bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Exists")
	defer scope.End()
	defer scope.TraceIfError(err)

	key := model.Key(roomID)
	scope.SetAttribute(otelKeyAttributeKey, key)

	count, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to check payment session")

		return false, fmt.Errorf("failed to check payment session: %w", err)
	}

	return count > 0, nil
}
