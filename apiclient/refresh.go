package apiclient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/autherr"
)

// pendingRequest is a request parked behind an in-flight refresh. done is
// buffered so the drain never blocks on a caller that gave up.
type pendingRequest struct {
	id   string
	req  *Request
	done chan refreshOutcome
}

type refreshOutcome struct {
	token string
	err   error
}

// awaitRefresh returns the token to replay req with. sent is the token req
// was dispatched with. The first caller to see the client idle with a stale
// token runs the refresh; everyone arriving while it runs is queued.
func (c *Client) awaitRefresh(ctx context.Context, req *Request, sent string) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		p := &pendingRequest{
			id:   uuid.New().String(),
			req:  req,
			done: make(chan refreshOutcome, 1),
		}
		c.queue = append(c.queue, p)
		c.mu.Unlock()

		c.logger.Debug().Str("pending_id", p.id).Str("path", req.Path).Msg("queued behind token refresh")
		select {
		case out := <-p.done:
			return out.token, out.err
		case <-ctx.Done():
			return "", autherr.Network(ctx.Err())
		}
	}

	// A 401 for a token that an earlier cycle already replaced belongs to
	// that cycle.
	if s := c.settling; s != nil && (s.err != nil || s.token != sent) {
		c.mu.Unlock()
		c.logger.Debug().Str("path", req.Path).Bool("refreshed", s.err == nil).Msg("401 after refresh cycle, reusing its outcome")
		return s.token, s.err
	}
	if current := c.bearer(); current != "" && current != sent {
		c.mu.Unlock()
		c.logger.Debug().Str("path", req.Path).Msg("token changed since dispatch, replaying without refresh")
		return current, nil
	}

	c.refreshing = true
	refresher, handler := c.refresher, c.handler
	c.mu.Unlock()

	// The refresh is shared by every queued caller, so one caller's
	// cancellation must not abort it. The transport timeout still applies.
	refreshCtx := context.WithoutCancel(ctx)

	result, err := c.refresh(refreshCtx, refresher)
	out := &refreshOutcome{token: result.Token, err: err}
	c.finish(out)

	if handler != nil {
		if err != nil {
			handler.SessionExpired(refreshCtx)
		} else {
			handler.SessionRefreshed(refreshCtx, result)
		}
	}
	c.settle(out)
	return out.token, out.err
}

func (c *Client) refresh(ctx context.Context, refresher Refresher) (RefreshResult, error) {
	refreshToken, ok, err := c.store.GetRefreshToken(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("reading refresh token failed, treating session as expired")
		ok = false
	}
	if !ok || refreshToken == "" || refresher == nil {
		c.logger.Info().Msg("no refresh token available, session expired")
		return RefreshResult{}, autherr.SessionExpired(nil)
	}

	result, err := refresher.RefreshSession(ctx, refreshToken)
	if err == nil && result.Token == "" {
		err = autherr.FromResponse(0, nil, "Token refresh failed")
	}
	if err != nil {
		c.logger.Info().Err(err).Msg("token refresh failed")
		if rmErr := c.store.RemoveToken(ctx); rmErr != nil {
			c.logger.Warn().Err(rmErr).Msg("removing stored token failed")
		}
		return RefreshResult{}, autherr.SessionExpired(err)
	}

	if err := c.store.SetToken(ctx, result.Token); err != nil {
		c.logger.Warn().Err(err).Msg("persisting refreshed token failed")
	}
	if result.RefreshToken != "" {
		if err := c.store.SetRefreshToken(ctx, result.RefreshToken); err != nil {
			c.logger.Warn().Err(err).Msg("persisting rotated refresh token failed")
		}
	}
	return result, nil
}

// finish releases every queued request in FIFO order and returns the client
// to idle. Both happen under the lock, so no new cycle can start mid-drain.
// The outcome stays visible as settling until the hooks have run.
func (c *Client) finish(out *refreshOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.queue {
		p.done <- *out
	}
	if n := len(c.queue); n > 0 {
		c.logger.Debug().Int("released", n).Bool("refreshed", out.err == nil).Msg("drained refresh queue")
	}
	c.queue = nil
	c.refreshing = false
	c.settling = out
}

func (c *Client) settle(out *refreshOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settling == out {
		c.settling = nil
	}
}
