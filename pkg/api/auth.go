package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// AuthResponse is returned by password login and registration
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

// MagicLinkResponse confirms that a sign-in email was sent
type MagicLinkResponse struct {
	Message          string `json:"message"`
	Email            string `json:"email"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// Credentials carried back to the frontend by the magic-link and OAuth
// redirects.
type Credentials struct {
	Token    string
	UserID   string
	Username string
	Email    string
}

// ErrInvalidLink is returned when a magic link is unknown, used or expired
var ErrInvalidLink = errors.New("sign-in link is invalid or expired")

// Login signs in with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/auth/login", nil, body, &out, authNone); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &out, nil
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register", nil, body, &out, authNone); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return &out, nil
}

// RequestMagicLink emails a one-time sign-in link
func (c *Client) RequestMagicLink(ctx context.Context, email string) (*MagicLinkResponse, error) {
	var out MagicLinkResponse
	if err := c.call(ctx, http.MethodPost, "/magic-link", nil, map[string]string{"email": email}, &out, authNone); err != nil {
		return nil, fmt.Errorf("magic link request failed: %w", err)
	}
	return &out, nil
}

// Verify exchanges a magic-link token for credentials. The backend answers
// with a redirect to the frontend; the credentials are read from its query.
func (c *Client) Verify(ctx context.Context, token string) (*Credentials, error) {
	location, err := c.redirectLocation(ctx, "/verify", url.Values{"token": {token}})
	if err != nil {
		return nil, fmt.Errorf("verify failed: %w", err)
	}
	return ParseRedirect(location)
}

// OAuthURL returns the provider sign-in URL the browser should open
func (c *Client) OAuthURL(ctx context.Context) (string, error) {
	location, err := c.redirectLocation(ctx, "/auth/login", nil)
	if err != nil {
		return "", fmt.Errorf("failed to resolve oauth url: %w", err)
	}
	return location, nil
}

// ParseRedirect reads credentials out of a frontend redirect URL
// (…/?oauth_success=true&token=…&user_id=…&username=…&email=…).
func ParseRedirect(raw string) (*Credentials, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect url: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		if e == "invalid_link" {
			return nil, ErrInvalidLink
		}
		return nil, fmt.Errorf("sign-in failed: %s", e)
	}
	creds := &Credentials{
		Token:    q.Get("token"),
		UserID:   q.Get("user_id"),
		Username: q.Get("username"),
		Email:    q.Get("email"),
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("redirect carries no token")
	}
	return creds, nil
}

func (c *Client) redirectLocation(ctx context.Context, path string, query url.Values) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return "", err
	}

	noFollow := *c.httpClient
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noFollow.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		if err := CheckResponse(resp); err != nil {
			return "", err
		}
		return "", fmt.Errorf("expected a redirect, got status %d", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("redirect without location")
	}
	return location, nil
}
