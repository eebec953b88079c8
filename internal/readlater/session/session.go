// Package session owns the bearer credential of the signed-in user.
//
// A Session is created once and passed explicitly to every client call.
// The token is mirrored to a Store so that it survives restarts, and is
// dropped from both places on logout, on local expiry detection and on an
// unauthorized answer from the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/jwtauth"
	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore"
)

const DefaultKey = "auth_token"

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Identity is what the stored token says about its holder.
type Identity struct {
	UserID    int
	Username  string
	ExpiresAt time.Time
}

type Session struct {
	mu    sync.RWMutex
	store Store
	key   string
	token string
	now   func() time.Time
}

func New(store Store, key string) *Session {
	if key == "" {
		key = DefaultKey
	}

	return &Session{
		store: store,
		key:   key,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()

	return s
}

// Load reads the persisted token into memory. A missing token is not an error.
func (s *Session) Load(ctx context.Context) error {
	token, err := s.store.Get(ctx, s.key)
	if errors.Is(err, tokenstore.ErrNotFound) {
		token = ""
	} else if err != nil {
		return fmt.Errorf("load token error: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return nil
}

// Set replaces the credential and persists it.
func (s *Session) Set(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, s.key, token); err != nil {
		return fmt.Errorf("save token error: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return nil
}

// Clear forgets the credential. The in-memory copy is dropped even when
// the store fails, so no further request carries it.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete token error: %w", err)
	}

	return nil
}

// Current decodes the stored token locally. ok is false when there is no
// token or it is malformed, carries no expiry or has expired.
func (s *Session) Current() (Identity, bool) {
	s.mu.RLock()
	token, now := s.token, s.now()
	s.mu.RUnlock()

	if token == "" {
		return Identity{}, false
	}

	claims, err := jwtauth.ParseUnverified(token)
	if err != nil {
		return Identity{}, false
	}

	if err := jwtauth.CheckExpiry(claims, now); err != nil {
		return Identity{}, false
	}

	return Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		ExpiresAt: claims.Expiry(),
	}, true
}

// Token returns the credential to attach to a request, if it is still valid.
func (s *Session) Token() (string, bool) {
	if _, ok := s.Current(); !ok {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token, s.token != ""
}

// HasToken reports whether any token, valid or not, is held.
func (s *Session) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token != ""
}
