// Package api is a client for the remote items service.
//
// The service exposes two endpoints, both under /api/items:
//
//	GET  /api/items  -> 200 [{"id":1,"name":"A"}, ...]
//	POST /api/items  -> 2xx {"id":2,"name":"B"}
//
// Failures are reported as *RequestError, *StatusError or *DecodeError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/idilsaglam/itemboard/internal/model"
)

// ItemsPath is the collection endpoint relative to the base URL.
const ItemsPath = "/api/items"

// Client talks to one items service base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option tunes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The caller owns its
// transport, including any tracing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for baseURL. Trailing slashes are dropped.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ListItems fetches the full item list.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, nil, okOnly, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// CreateItem posts a new item and returns the server's record of it.
func (c *Client) CreateItem(ctx context.Context, name string) (model.Item, error) {
	body, err := json.Marshal(model.NewItem{Name: name})
	if err != nil {
		return model.Item{}, &RequestError{Method: http.MethodPost, Path: ItemsPath, Err: err}
	}
	var created model.Item
	if err := c.do(ctx, http.MethodPost, body, anySuccess, &created); err != nil {
		return model.Item{}, err
	}
	return created, nil
}

func okOnly(code int) bool     { return code == http.StatusOK }
func anySuccess(code int) bool { return code >= 200 && code < 300 }

func (c *Client) do(ctx context.Context, method string, body []byte, accept func(int) bool, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ItemsPath, rd)
	if err != nil {
		return &RequestError{Method: method, Path: ItemsPath, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Method: method, Path: ItemsPath, Err: err}
	}
	defer res.Body.Close()

	if !accept(res.StatusCode) {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, res.Body)
		return &StatusError{Method: method, Path: ItemsPath, StatusCode: res.StatusCode}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return &RequestError{Method: method, Path: ItemsPath, Err: err}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &DecodeError{Method: method, Path: ItemsPath, Err: err}
	}
	return nil
}
