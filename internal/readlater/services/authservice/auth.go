package authservice

import (
	"context"
	"errors"
	"sync"

	"github.com/Leopold1975/readlater/internal/pkg/inflight"
	"github.com/Leopold1975/readlater/internal/readlater/api/client"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/session"
	"github.com/Leopold1975/readlater/pkg/logger"
)

type Status string

const (
	StatusUnknown       Status = "unknown"
	StatusLoading       Status = "loading"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgLoginFailed    = "Login failed. Please try again."
	msgRegisterFailed = "Registration failed. Please try again."
)

type Client interface {
	Login(ctx context.Context, sess *session.Session, username, password string) (models.User, error)
	Register(ctx context.Context, sess *session.Session, username, email, password string) (models.User, error)
	Profile(ctx context.Context, sess *session.Session) (models.User, error)
}

type State struct {
	Status Status       `json:"status"`
	User   *models.User `json:"user,omitempty"`
	Err    string       `json:"error,omitempty"`
}

type AuthService struct {
	client Client
	sess   *session.Session
	guard  *inflight.Guard
	lg     logger.Logger

	mu        sync.RWMutex
	state     State
	onSignOut []func(context.Context)
}

func New(c Client, sess *session.Session, lg logger.Logger) *AuthService {
	return &AuthService{
		client: c,
		sess:   sess,
		guard:  inflight.New(),
		lg:     lg,
		state:  State{Status: StatusUnknown}, //nolint:exhaustruct
	}
}

// OnSignOut registers fn to run after logout or forced expiry.
func (as *AuthService) OnSignOut(fn func(context.Context)) {
	as.mu.Lock()
	as.onSignOut = append(as.onSignOut, fn)
	as.mu.Unlock()
}

func (as *AuthService) State() State {
	as.mu.RLock()
	defer as.mu.RUnlock()

	st := as.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}

	return st
}

func (as *AuthService) Authenticated() bool {
	return as.State().Status == StatusAuthenticated
}

// Check runs at startup. A missing or locally expired token yields
// anonymous without a round trip; otherwise the profile is fetched and any
// failure drops the token.
func (as *AuthService) Check(ctx context.Context) {
	if _, ok := as.sess.Current(); !ok {
		if as.sess.HasToken() {
			if err := as.sess.Clear(ctx); err != nil {
				as.lg.Errorf("clear session error: %s", err.Error())
			}
		}

		as.set(State{Status: StatusAnonymous}) //nolint:exhaustruct

		return
	}

	as.set(State{Status: StatusLoading}) //nolint:exhaustruct

	u, err := as.client.Profile(ctx, as.sess)
	if err != nil {
		as.lg.Errorf("fetch user profile error: %s", err.Error())

		if err := as.sess.Clear(ctx); err != nil {
			as.lg.Errorf("clear session error: %s", err.Error())
		}

		as.set(State{Status: StatusAnonymous}) //nolint:exhaustruct

		return
	}

	as.set(State{Status: StatusAuthenticated, User: &u}) //nolint:exhaustruct
}

func (as *AuthService) Login(ctx context.Context, username, password string) error {
	return as.authenticate(ctx, "login", msgLoginFailed, func() (models.User, error) {
		return as.client.Login(ctx, as.sess, username, password)
	})
}

func (as *AuthService) Register(ctx context.Context, username, email, password string) error {
	return as.authenticate(ctx, "register", msgRegisterFailed, func() (models.User, error) {
		return as.client.Register(ctx, as.sess, username, email, password)
	})
}

func (as *AuthService) authenticate(ctx context.Context, action, generic string,
	call func() (models.User, error),
) error {
	release, err := as.guard.Acquire(action)
	if err != nil {
		return err
	}
	defer release()

	prev := as.State()
	as.set(State{Status: StatusLoading, User: prev.User}) //nolint:exhaustruct

	u, err := call()
	if err != nil {
		prev.Err = surface(err, generic)
		as.set(prev)

		return err
	}

	// a different account must not see what the previous one left behind
	if prev.User != nil && prev.User.ID != u.ID {
		as.signedOut(ctx)
	}

	as.set(State{Status: StatusAuthenticated, User: &u}) //nolint:exhaustruct
	as.lg.Infof("signed in as %s", u.Username)

	return nil
}

// Logout removes the credential and returns to anonymous.
func (as *AuthService) Logout(ctx context.Context) error {
	err := as.sess.Clear(ctx)

	as.set(State{Status: StatusAnonymous}) //nolint:exhaustruct
	as.signedOut(ctx)

	return err
}

// Expire is the forced logout that follows an authentication failure
// reported by any operation.
func (as *AuthService) Expire(ctx context.Context) {
	if err := as.sess.Clear(ctx); err != nil {
		as.lg.Errorf("clear session error: %s", err.Error())
	}

	as.set(State{Status: StatusAnonymous, Err: msgSessionExpired}) //nolint:exhaustruct
	as.signedOut(ctx)
}

func (as *AuthService) set(st State) {
	as.mu.Lock()
	as.state = st
	as.mu.Unlock()
}

func (as *AuthService) signedOut(ctx context.Context) {
	as.mu.RLock()
	hooks := append([]func(context.Context){}, as.onSignOut...)
	as.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}

func surface(err error, generic string) string {
	var apiErr *client.Error

	if errors.As(err, &apiErr) && !errors.Is(err, client.ErrTransport) {
		return apiErr.Message
	}

	return generic
}
