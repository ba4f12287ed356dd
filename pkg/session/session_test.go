package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cashier-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type failingStore struct {
	core.Memory
	err error
}

func (f failingStore) Get(ctx context.Context, key string) (string, error) { return "", f.err }

func (f failingStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return f.err
}

func TestSession_TokenMissing(t *testing.T) {
	s := New(core.NewMemoryStore())

	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.True(t, IsLoginRequired(err))
}

func TestSession_TokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(core.NewMemoryStore())

	require.NoError(t, s.SaveToken(ctx, "opaque-token"))
	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", got)

	require.NoError(t, s.ClearToken(ctx))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSession_SaveEmptyToken(t *testing.T) {
	err := New(core.NewMemoryStore()).SaveToken(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestSession_TokenExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s := New(core.NewMemoryStore(), WithClock(func() time.Time { return now }))

	live := signedToken(t, now.Add(time.Hour))
	require.NoError(t, s.SaveToken(ctx, live))
	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, live, got)

	require.NoError(t, s.SaveToken(ctx, signedToken(t, now.Add(-time.Minute))))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, IsLoginRequired(err))
}

func TestSession_TokenStoreFailure(t *testing.T) {
	boom := errors.New("boom")
	s := New(failingStore{err: boom})

	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsLoginRequired(err))
}

func TestSession_CartRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := core.NewMemoryStore()
	s := New(store)

	cart, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart)

	require.NoError(t, s.SaveCart(ctx, map[int]int{1: 2, 7: 1}))

	raw, err := store.Get(ctx, core.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":2,"7":1}`, raw)

	cart, err = s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2, 7: 1}, cart)
}

func TestSession_LoadCartDropsNonPositive(t *testing.T) {
	ctx := context.Background()
	store := core.NewMemoryStore()
	require.NoError(t, store.Set(ctx, core.KeyCart, `{"1":0,"2":-3,"3":4}`, 0))

	cart, err := New(store).LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{3: 4}, cart)
}

func TestSession_LoadCartCorrupt(t *testing.T) {
	ctx := context.Background()
	store := core.NewMemoryStore()
	require.NoError(t, store.Set(ctx, core.KeyCart, `not json`, 0))

	_, err := New(store).LoadCart(ctx)
	assert.ErrorIs(t, err, core.ErrCorruptSnapshot)
}

func TestSession_SaveCartFailure(t *testing.T) {
	boom := errors.New("disk full")
	err := New(failingStore{err: boom}).SaveCart(context.Background(), map[int]int{1: 1})
	assert.ErrorIs(t, err, boom)
}

func TestSession_Context(t *testing.T) {
	s := New(core.NewMemoryStore(), WithID("till-7"))
	ctx := s.Context(context.Background())

	assert.Equal(t, "till-7", s.ID())
	assert.Equal(t, "till-7", telemetry.GetSessionID(ctx))
	assert.NotEmpty(t, telemetry.GetCorrelationID(ctx))
}

func TestEncodeCart_Nil(t *testing.T) {
	data, err := EncodeCart(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", data)
}
