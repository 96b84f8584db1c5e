package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/goevery/gigboard/internal/ierr"
	"go.uber.org/zap"
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Options struct {
	Method string
	Body   any
	Auth   bool
}

type Client struct {
	logger     *zap.Logger
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

var authRoutePattern = regexp.MustCompile(`(?i)/api/auth/`)

func NewClient(logger *zap.Logger, baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		logger,
		strings.TrimRight(baseURL, "/"),
		httpClient,
		tokens,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, auth bool, out any) error {
	return c.Do(ctx, path, Options{Method: http.MethodGet, Auth: auth}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, auth bool, out any) error {
	return c.Do(ctx, path, Options{Method: http.MethodPost, Body: body, Auth: auth}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, auth bool, out any) error {
	return c.Do(ctx, path, Options{Method: http.MethodPut, Body: body, Auth: auth}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, auth bool, out any) error {
	return c.Do(ctx, path, Options{Method: http.MethodPatch, Body: body, Auth: auth}, out)
}

func (c *Client) Delete(ctx context.Context, path string, auth bool, out any) error {
	return c.Do(ctx, path, Options{Method: http.MethodDelete, Auth: auth}, out)
}

// Do sends one request and decodes a successful JSON response into out, which
// may be nil. Non-success responses come back as ierr.Error carrying the
// backend's message.
func (c *Client) Do(ctx context.Context, path string, opts Options, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return ierr.New(ierr.ErrorCodeInvalidArgument, fmt.Errorf("encoding request body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return ierr.New(ierr.ErrorCodeInvalidArgument, err)
	}
	req.Header.Set("Content-Type", "application/json")

	if opts.Auth {
		c.authorize(ctx, req)
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path))

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))

		return ierr.New(ierr.ErrorCodeInternal, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return ierr.New(ierr.ErrorCodeInternal, fmt.Errorf("reading response body: %w", err))
	}

	c.logger.Debug("api response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode))

	data := decodeBody(raw)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message := errorMessage(data, res.StatusCode)

		c.logger.Error("api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.String("message", message))
		c.logger.Debug("api error body", zap.Any("data", Redact(data)))

		return ierr.FromStatus(res.StatusCode, message)
	}

	if !authRoutePattern.MatchString(path) {
		c.logger.Debug("api success", zap.Any("data", Redact(data)))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return ierr.New(ierr.ErrorCodeInternal, fmt.Errorf("decoding response of %s %s: %w", method, path, err))
	}

	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		c.logger.Warn("auth requested but no token source configured")
		return
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("failed to read auth token", zap.Error(err))
		return
	}

	if token == "" {
		c.logger.Warn("auth requested but no token found")
		return
	}

	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// decodeBody parses a response body as JSON, keeping it as a string when it
// is not JSON. An empty body decodes to nil.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return string(raw)
	}

	return data
}

func errorMessage(data any, status int) string {
	if object, ok := data.(map[string]any); ok {
		for _, key := range []string{"error", "message"} {
			if message, ok := object[key].(string); ok && message != "" {
				return message
			}
		}
	}

	return fmt.Sprintf("Request failed (%d)", status)
}
