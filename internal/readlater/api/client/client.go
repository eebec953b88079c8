package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/readlater/session"
	"github.com/Leopold1975/readlater/pkg/logger"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Client talks to the read-it-later REST API. It holds no credential of
// its own: every call receives the session to authenticate with.
type Client struct {
	baseURL    *url.URL
	hc         *http.Client
	timeout    time.Duration
	proxyHosts []string
	lg         logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func New(cfg config.Client, lg logger.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url error: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL) //nolint:goerr113
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		baseURL:    u,
		hc:         &http.Client{}, //nolint:exhaustruct
		timeout:    cfg.Timeout,
		proxyHosts: cfg.ProxyImageHosts,
		lg:         lg,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	auth   bool
}

func (c *Client) do(ctx context.Context, sess *session.Session, req request) error {
	var token string

	if req.auth {
		t, ok := sess.Token()
		if !ok {
			// a stale token must not linger once it has been judged unusable
			if sess.HasToken() {
				if err := sess.Clear(ctx); err != nil {
					c.lg.Errorf("clear session error: %s", err.Error())
				}
			}

			return newError(ErrAuth, 0, "not logged in or session expired")
		}

		token = t
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req, token)
	if err != nil {
		return newError(ErrTransport, 0, "build request: %s", err.Error())
	}

	start := time.Now()

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return newError(ErrTransport, 0, "request timed out")
		}

		if errors.Is(err, context.Canceled) {
			return newError(ErrTransport, 0, "request cancelled")
		}

		return newError(ErrTransport, 0, "network error: could not reach server")
	}
	defer resp.Body.Close()

	c.lg.Debugf("METHOD %s URI %s STATUS %d Latency %s RequestID %s",
		req.method, httpReq.URL.RequestURI(), resp.StatusCode, time.Since(start).String(),
		httpReq.Header.Get(headerRequestID))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := c.decodeError(resp)

		if errors.Is(apiErr, ErrAuth) && req.auth {
			if err := sess.Clear(ctx); err != nil {
				c.lg.Errorf("clear session error: %s", err.Error())
			}
		}

		return apiErr
	}

	if req.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil {
		return newError(ErrTransport, resp.StatusCode, "unexpected response from server")
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, req request, token string) (*http.Request, error) {
	// req.path is already escaped
	u, err := url.Parse(c.baseURL.String() + req.path)
	if err != nil {
		return nil, fmt.Errorf("parse url error: %w", err)
	}

	if len(req.query) != 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader

	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal error: %w", err)
		}

		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request error: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, uuid.NewString())

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

func (c *Client) decodeError(resp *http.Response) *Error {
	kind := kindForStatus(resp.StatusCode)

	var e ErrorResponse

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && json.Unmarshal(b, &e) == nil && e.Err != "" {
		return newError(kind, resp.StatusCode, "%s", e.Err)
	}

	return newError(kind, resp.StatusCode, "HTTP %d", resp.StatusCode)
}
