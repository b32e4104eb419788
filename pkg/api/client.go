// Package api is the REST client for the deepship backend.
package api

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

	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

// TokenSource supplies the bearer token for authenticated calls; "" means
// anonymous.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns itself
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return NewClientWithTimeout(baseURL, 30*time.Second, tokens)
}

func NewClientWithTimeout(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
	}
}

// BaseURL returns the backend root without a trailing slash
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current bearer token
func (c *Client) Token() string { return c.tokens.Token() }

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// ErrUnauthenticated is returned by calls that need a signed-in user
var ErrUnauthenticated = errors.New("not logged in")

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// authorize attaches the bearer token. required makes a missing token an error.
func (c *Client) authorize(req *http.Request, required bool) error {
	token := c.tokens.Token()
	if token == "" {
		if required {
			return ErrUnauthenticated
		}
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// call performs a JSON round trip. out may be nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any, auth authMode) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if auth != authNone {
		if err := c.authorize(req, auth == authRequired); err != nil {
			return err
		}
	}

	log := logger.WithComponent("api")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug("request complete", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start).String())

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type authMode int

const (
	authNone authMode = iota
	authOptional
	authRequired
)

// CheckResponse turns a non-2xx response into an *APIError, reading the
// FastAPI {"detail": ...} body when present.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("failed to read error response: %v", err)}
	}

	var errorResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(body, &errorResp) == nil {
		if len(errorResp.Detail) > 0 {
			var s string
			if json.Unmarshal(errorResp.Detail, &s) == nil {
				return &APIError{StatusCode: resp.StatusCode, Detail: s}
			}
			return &APIError{StatusCode: resp.StatusCode, Detail: string(errorResp.Detail)}
		}
		if errorResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Detail: errorResp.Error}
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
}

// HealthStatus is the /health payload
type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp Timestamp       `json:"timestamp"`
	Features  map[string]bool `json:"features"`
}

// Health checks that the backend is reachable
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.call(ctx, http.MethodGet, "/health", nil, nil, &status, authNone); err != nil {
		return nil, err
	}
	return &status, nil
}
