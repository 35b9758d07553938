package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	otelMocks "pgnest/infras/otel/mocks"
	"pgnest/internal/domains/payment/model"
	"pgnest/internal/domains/payment/store"
)

func newStore(t *testing.T) (store.Store, *miniredis.Miniredis) {
	s := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return store.New(client, otelMocks.NewOtel()), s
}

func session() model.Session {
	return model.Session{
		RoomID:         "room-1",
		Amount:         5000,
		PaymentDunning: 5,
		Message:        "first month rent",
	}
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the session with the dunning period as TTL", func(t *testing.T) {
		st, mr := newStore(t)

		created, err := st.Create(ctx, session())
		require.NoError(t, err)
		assert.True(t, created)

		assert.Equal(t, 432000*time.Second, mr.TTL(model.Key("room-1")))
	})

	t.Run("a live session blocks a second write", func(t *testing.T) {
		st, _ := newStore(t)

		_, err := st.Create(ctx, session())
		require.NoError(t, err)

		other := session()
		other.Amount = 9000

		created, err := st.Create(ctx, other)
		require.NoError(t, err)
		assert.False(t, created)

		// The loser must not overwrite the live session.
		got, _, err := st.Get(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, float64(5000), got.Amount)
	})
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips the session and reports the remaining TTL", func(t *testing.T) {
		st, mr := newStore(t)

		_, err := st.Create(ctx, session())
		require.NoError(t, err)

		mr.FastForward(100000 * time.Second)

		got, ttl, err := st.Get(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, session(), got)
		assert.Equal(t, 332000*time.Second, ttl)
	})

	t.Run("an expired session is gone", func(t *testing.T) {
		st, mr := newStore(t)

		_, err := st.Create(ctx, session())
		require.NoError(t, err)

		mr.FastForward(432001 * time.Second)

		_, _, err = st.Get(ctx, "room-1")
		assert.ErrorIs(t, err, store.ErrNoSession)
	})

	t.Run("a room without a session reports no session", func(t *testing.T) {
		st, _ := newStore(t)

		_, _, err := st.Get(ctx, "room-2")
		assert.ErrorIs(t, err, store.ErrNoSession)
	})
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("reports whether a session existed", func(t *testing.T) {
		st, _ := newStore(t)

		_, err := st.Create(ctx, session())
		require.NoError(t, err)

		existed, err := st.Delete(ctx, "room-1")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = st.Delete(ctx, "room-1")
		require.NoError(t, err)
		assert.False(t, existed)
	})
}

func TestStore_Exists(t *testing.T) {
	ctx := context.Background()

	st, mr := newStore(t)

	exists, err := st.Exists(ctx, "room-1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = st.Create(ctx, session())
	require.NoError(t, err)

	exists, err = st.Exists(ctx, "room-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(432001 * time.Second)

	exists, err = st.Exists(ctx, "room-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
