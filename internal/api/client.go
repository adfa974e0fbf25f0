package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Makepad-fr/tada/internal/model"
)

// Client is the remote todo store. Implementations must be safe to call from
// several goroutines at once; bulk operations issue calls in parallel.
type Client interface {
	List(ctx context.Context, ownerID int) ([]model.Todo, error)
	Create(ctx context.Context, t model.NewTodo) (model.Todo, error)
	Update(ctx context.Context, id int, p model.Patch) (model.Todo, error)
	Delete(ctx context.Context, id int) error
}

// RequestIDHeader carries a per-request ULID so client and server logs line up.
const RequestIDHeader = "X-Request-Id"

// HTTPClient talks to the JSON todo API:
//
//	GET    /todos?userId=N
//	POST   /todos
//	PATCH  /todos/{id}
//	DELETE /todos/{id}
type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) List(ctx context.Context, ownerID int) ([]model.Todo, error) {
	q := url.Values{"userId": {strconv.Itoa(ownerID)}}
	var out []model.Todo
	if err := c.do(ctx, http.MethodGet, "/todos?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Todo{}
	}
	return out, nil
}

func (c *HTTPClient) Create(ctx context.Context, t model.NewTodo) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, http.MethodPost, "/todos", t, &out)
	return out, err
}

func (c *HTTPClient) Update(ctx context.Context, id int, p model.Patch) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, http.MethodPatch, "/todos/"+strconv.Itoa(id), p, &out)
	return out, err
}

func (c *HTTPClient) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+strconv.Itoa(id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	reqID := ulid.Make().String()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		slog.Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	slog.Debug("request done", "method", method, "path", path, "request_id", reqID, "status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Status: resp.StatusCode, Method: method, Path: path, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("json decode %s %s: %w", method, path, err)
	}
	return nil
}
