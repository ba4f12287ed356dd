// Package session is the explicit session context shared by the cart and
// the viewers. It owns typed access to the bearer token and the cart
// snapshot over an injected core.Memory store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/telemetry"
)

var (
	// ErrNoToken means no bearer token is stored for the session.
	ErrNoToken = errors.New("no session token")
	// ErrTokenExpired means the stored token carries an exp claim in the past.
	ErrTokenExpired = errors.New("session token expired")
)

// IsLoginRequired reports whether err means the user must log in again.
func IsLoginRequired(err error) bool {
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrTokenExpired)
}

// Session binds one till session to its key-value store.
type Session struct {
	id     string
	store  core.Memory
	logger core.Logger
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger core.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a session over store.
func New(store core.Memory, opts ...Option) *Session {
	s := &Session{
		id:     uuid.New().String(),
		store:  store,
		logger: &core.NoOpLogger{},
		now:    time.Now,
		parser: jwt.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Store returns the underlying key-value store.
func (s *Session) Store() core.Memory {
	return s.store
}

// Context tags ctx with the session id for logs and outbound headers.
func (s *Session) Context(ctx context.Context) context.Context {
	return telemetry.WithSessionID(telemetry.EnsureCorrelationID(ctx), s.id)
}

// Token returns the stored bearer token.
//
// ErrNoToken is returned when none is stored. A JWT whose exp claim has
// passed yields ErrTokenExpired; opaque tokens are returned as is and left
// for the server to judge.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, core.KeyToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	if exp, ok := s.expiry(token); ok && !s.now().Before(exp) {
		s.logger.Info("Stored token has expired", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"expired_at": exp.Format(time.RFC3339),
		}))
		return "", ErrTokenExpired
	}
	return token, nil
}

func (s *Session) expiry(token string) (time.Time, bool) {
	parsed, _, err := s.parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// SaveToken stores the bearer token for later authenticated calls.
func (s *Session) SaveToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("empty token: %w", core.ErrInvalidConfiguration)
	}
	if err := s.store.Set(ctx, core.KeyToken, token, 0); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.logger.Info("Session token saved", telemetry.EnrichLogFields(s.Context(ctx), nil))
	return nil
}

// ClearToken removes the bearer token (logout).
func (s *Session) ClearToken(ctx context.Context) error {
	if err := s.store.Delete(ctx, core.KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.logger.Info("Session token cleared", telemetry.EnrichLogFields(s.Context(ctx), nil))
	return nil
}

// LoadCart reads the persisted cart snapshot. A missing snapshot is an
// empty cart. Non-positive quantities are dropped.
func (s *Session) LoadCart(ctx context.Context) (map[int]int, error) {
	raw, err := s.store.Get(ctx, core.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	cart := make(map[int]int)
	if raw == "" {
		return cart, nil
	}
	var stored map[int]int
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, &core.FrameworkError{
			Op:   "session.LoadCart",
			Kind: "session",
			ID:   core.KeyCart,
			Err:  fmt.Errorf("%v: %w", err, core.ErrCorruptSnapshot),
		}
	}
	for id, qty := range stored {
		if qty > 0 {
			cart[id] = qty
		}
	}
	return cart, nil
}

// SaveCart writes the full cart snapshot as a JSON object keyed by
// product id.
func (s *Session) SaveCart(ctx context.Context, cart map[int]int) error {
	data, err := EncodeCart(cart)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, core.KeyCart, data, 0); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// EncodeCart serializes a cart the way SaveCart persists it.
func EncodeCart(cart map[int]int) (string, error) {
	if cart == nil {
		cart = map[int]int{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(data), nil
}
