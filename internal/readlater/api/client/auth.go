package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/session"
)

// Login exchanges credentials for a token and stores it in sess.
func (c *Client) Login(ctx context.Context, sess *session.Session, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, validationError("username and password are required")
	}

	var resp models.AuthResponse

	err := c.do(ctx, sess, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   models.LoginRequest{Username: username, Password: password},
		out:    &resp,
	})
	if err != nil {
		return models.User{}, err
	}

	if resp.Token == "" {
		return models.User{}, newError(ErrTransport, 0, "server returned no token")
	}

	if err := sess.Set(ctx, resp.Token); err != nil {
		return models.User{}, fmt.Errorf("set session error: %w", err)
	}

	return resp.User, nil
}

// Register creates an account. Servers that do not issue a token on
// registration are followed up with a login using the same credentials.
func (c *Client) Register(ctx context.Context, sess *session.Session,
	username, email, password string,
) (models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return models.User{}, validationError("username, email and password are required")
	}

	var resp models.AuthResponse

	err := c.do(ctx, sess, request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   models.RegisterRequest{Username: username, Email: email, Password: password},
		out:    &resp,
	})
	if err != nil {
		return models.User{}, err
	}

	if resp.Token == "" {
		return c.Login(ctx, sess, username, password)
	}

	if err := sess.Set(ctx, resp.Token); err != nil {
		return models.User{}, fmt.Errorf("set session error: %w", err)
	}

	return resp.User, nil
}

func (c *Client) Profile(ctx context.Context, sess *session.Session) (models.User, error) {
	var u models.User

	err := c.do(ctx, sess, request{
		method: http.MethodGet,
		path:   "/api/user/profile",
		out:    &u,
		auth:   true,
	})
	if err != nil {
		return models.User{}, err
	}

	return u, nil
}
