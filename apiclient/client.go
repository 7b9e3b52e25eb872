// Package apiclient is the HTTP client every remote auth operation goes
// through. It attaches the current bearer token at dispatch time and owns the
// single-flight refresh protocol: when authenticated requests come back 401,
// exactly one refresh call is made, requests that fail in the meantime are
// queued, and all of them are replayed with the new token (or all fail with
// the same error).
package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20

	HeaderRequestID = "X-Request-ID"
)

// TokenProvider returns the bearer token to attach; "" sends no header.
// *session.State satisfies it.
type TokenProvider interface {
	Token() string
}

// RefreshResult is what a successful refresh yields.
type RefreshResult struct {
	Token        string
	RefreshToken string // empty when the server does not rotate
	User         *users.User
}

// Refresher exchanges a refresh token for a new bearer token. The call it
// makes must be Anonymous so it is never intercepted itself.
type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (RefreshResult, error)
}

// SessionHandler is told about the outcome of a refresh cycle. Both hooks run
// after the queue is drained and the client is idle again, so they may issue
// requests through the client.
type SessionHandler interface {
	// SessionRefreshed runs after the new tokens are persisted.
	SessionRefreshed(ctx context.Context, result RefreshResult)
	// SessionExpired runs when no refresh token is stored or refresh failed.
	SessionExpired(ctx context.Context)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	store      securestore.Store
	logger     zerolog.Logger

	mu         sync.Mutex
	refresher  Refresher
	handler    SessionHandler
	refreshing bool
	queue      []*pendingRequest
	settling   *refreshOutcome // last cycle, while its hooks are still running
}

type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is kept unless WithTimeout follows.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the uniform per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, tokens TokenProvider, store securestore.Store, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		store:      store,
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SetRefresher wires the refresh operation. It is set after construction
// because the remote operations are themselves built on this client.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

func (c *Client) SetSessionHandler(h SessionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Refreshing reports whether a refresh cycle is in flight.
func (c *Client) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of requests queued behind the in-flight refresh.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Do sends req and returns the 2xx response. Non-2xx responses come back as
// *autherr.Error; a 401 on an authenticated request goes through the refresh
// protocol first.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	sent := c.bearer()
	resp, err := c.dispatch(ctx, req, sent)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized || req.Anonymous {
		return resp.result(req)
	}

	token, err := c.awaitRefresh(ctx, req, sent)
	if err != nil {
		return nil, err
	}

	// Replay once. A second 401 comes back as an Authorization error; no further refresh.
	resp, err = c.dispatch(ctx, req, token)
	if err != nil {
		return nil, err
	}
	return resp.result(req)
}

func (c *Client) bearer() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) dispatch(ctx context.Context, req *Request, token string) (*Response, error) {
	requestID := uuid.New().String()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), c.baseURL+req.Path, body)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient.dispatch] NewRequest")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	if !req.Anonymous && token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", requestID).Str("method", req.method()).Str("path", req.Path).Msg("api request failed")
		return nil, autherr.Network(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, autherr.Network(err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.method()).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	return &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      data,
		RequestID: requestID,
	}, nil
}
