package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/pkg/errors"
)

// Request describes one logical call; it is everything needed to replay it.
type Request struct {
	Method string
	Path   string // appended to the base URL, e.g. "/auth/login"
	Body   []byte // JSON, nil for no body

	// Anonymous requests carry no bearer token and are never intercepted by
	// the refresh protocol: a 401 from them is a credential error.
	Anonymous bool

	// FallbackMessage is used when an error response carries no message.
	FallbackMessage string
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

func (r *Response) result(req *Request) (*Response, error) {
	if r.Status >= 200 && r.Status < 300 {
		return r, nil
	}
	return nil, autherr.FromResponse(r.Status, r.Body, req.FallbackMessage)
}

// Decode unmarshals the body into out; an empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return errors.Wrap(err, "[apiclient.Response.Decode] json.Unmarshal")
	}
	return nil
}

type RequestOption func(*Request)

func Anonymous() RequestOption {
	return func(r *Request) {
		r.Anonymous = true
	}
}

func WithFallbackMessage(msg string) RequestOption {
	return func(r *Request) {
		r.FallbackMessage = msg
	}
}

// DoJSON marshals in (when non-nil), sends it and decodes the 2xx body into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any, options ...RequestOption) error {
	req := &Request{Method: method, Path: path}
	for _, opt := range options {
		opt(req)
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "[apiclient.DoJSON] json.Marshal")
		}
		req.Body = body
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
