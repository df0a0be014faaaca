// Package api is the REST boundary to the suasor server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL matches a local server
	DefaultBaseURL = "http://localhost:8080/api/v1"
	defaultTimeout = 30 * time.Second
)

// Authenticator supplies bearer tokens and refreshes them after a 401
type Authenticator interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// Config configures a Client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client performs authenticated JSON requests against the API
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authenticator
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthenticator attaches bearer tokens to every request
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Path joins escaped segments into an API path, e.g. Path("playlists", 3, "items")
func Path(segments ...any) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(fmt.Sprint(s)))
	}
	return b.String()
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Page
}

type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Type    string          `json:"type"`
	Details map[string]any  `json:"details"`
}

type request struct {
	method     string
	path       string
	params     url.Values
	body       any
	file       *file
	allowEmpty bool
}

type file struct {
	field, name string
	data        []byte
}

// Get fetches path and decodes the envelope's data into T
func Get[T any](ctx context.Context, c *Client, path string, params url.Values) Result[T] {
	return do[T](ctx, c, request{method: http.MethodGet, path: path, params: params})
}

// Post sends body to path and decodes the envelope's data into T
func Post[T any](ctx context.Context, c *Client, path string, body any) Result[T] {
	return do[T](ctx, c, request{method: http.MethodPost, path: path, body: body})
}

// Put sends body to path and decodes the envelope's data into T
func Put[T any](ctx context.Context, c *Client, path string, body any) Result[T] {
	return do[T](ctx, c, request{method: http.MethodPut, path: path, body: body})
}

// Upload posts data as a multipart form file under field
func Upload[T any](ctx context.Context, c *Client, path, field, filename string, data []byte) Result[T] {
	return do[T](ctx, c, request{method: http.MethodPost, path: path, file: &file{field: field, name: filename, data: data}})
}

// Delete removes the resource at path. The response may omit data.
func Delete[T any](ctx context.Context, c *Client, path string) Result[T] {
	return do[T](ctx, c, request{method: http.MethodDelete, path: path, allowEmpty: true})
}

// Exec performs a request whose response payload is not needed
func (c *Client) Exec(ctx context.Context, method, path string, body any) error {
	r := do[json.RawMessage](ctx, c, request{method: method, path: path, body: body, allowEmpty: true})
	if !r.OK {
		return r.Err
	}
	return nil
}

func do[T any](ctx context.Context, c *Client, req request) Result[T] {
	env, apiErr := c.send(ctx, req, true)
	if apiErr != nil {
		return failure[T](apiErr)
	}

	var value T
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		if req.allowEmpty {
			return success(value, env.Page)
		}
		return failure[T](&Error{
			Kind:    KindValidation,
			Method:  req.method,
			Path:    req.path,
			Message: "response did not contain data",
		})
	}
	if err := json.Unmarshal(env.Data, &value); err != nil {
		return failure[T](&Error{
			Kind:    KindValidation,
			Method:  req.method,
			Path:    req.path,
			Message: fmt.Sprintf("decode response: %v", err),
			Err:     err,
		})
	}
	return success(value, env.Page)
}

func (c *Client) send(ctx context.Context, req request, allowRefresh bool) (*envelope, *Error) {
	fail := func(status int, msg string, err error) *Error {
		return &Error{Kind: KindNetwork, Method: req.method, Path: req.path, Status: status, Message: msg, Err: err}
	}

	reqURL := c.baseURL + req.path
	if len(req.params) > 0 {
		reqURL += "?" + req.params.Encode()
	}

	var body io.Reader
	var contentType string
	switch {
	case req.file != nil:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile(req.file.field, req.file.name)
		if err == nil {
			_, err = fw.Write(req.file.data)
		}
		if err == nil {
			err = mw.Close()
		}
		if err != nil {
			return nil, fail(0, fmt.Sprintf("encode upload: %v", err), err)
		}
		body, contentType = &buf, mw.FormDataContentType()
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fail(0, fmt.Sprintf("encode request: %v", err), err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, body)
	if err != nil {
		return nil, fail(0, fmt.Sprintf("create request: %v", err), err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.auth != nil {
		token, err := c.auth.Token(ctx)
		if err != nil {
			c.logger.Debug("no auth token", "error", err)
		} else if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("api request", "method", req.method, "url", reqURL)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("api request failed", "method", req.method, "path", req.path, "error", err)
		return nil, fail(0, err.Error(), err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Sprintf("read response: %v", err), err)
	}

	if resp.StatusCode == http.StatusUnauthorized && allowRefresh && c.auth != nil {
		if err := c.auth.Refresh(ctx); err == nil {
			c.logger.Debug("token refreshed, resending", "path", req.path)
			return c.send(ctx, req, false)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := fail(resp.StatusCode, http.StatusText(resp.StatusCode), nil)
		decodeErrorBody(data, apiErr)
		c.logger.Error("api request error", "method", req.method, "path", req.path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	var env envelope
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, &Error{
				Kind:    KindValidation,
				Method:  req.method,
				Path:    req.path,
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("decode response: %v", err),
				Err:     err,
			}
		}
	}
	return &env, nil
}

// decodeErrorBody fills message, type and details from a JSON error body when present
func decodeErrorBody(data []byte, apiErr *Error) {
	var body errorBody
	if json.Unmarshal(data, &body) != nil {
		return
	}
	if len(body.Error) > 0 {
		var nested errorBody
		var text string
		switch {
		case json.Unmarshal(body.Error, &text) == nil && text != "":
			if body.Message == "" {
				body.Message = text
			}
		case json.Unmarshal(body.Error, &nested) == nil:
			if nested.Message != "" {
				body.Message = nested.Message
			}
			if nested.Type != "" {
				body.Type = nested.Type
			}
			if nested.Details != nil {
				body.Details = nested.Details
			}
		}
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	}
	apiErr.Type = body.Type
	apiErr.Details = body.Details
}
