// Package client implements the remote persistence contract over the
// flashmind HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/townerr/flashmind/internal/model"
)

var _ model.SessionAPI = (*Client)(nil)

// Client talks to a flashmind server with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// SetToken sets the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// AuthResult is the response to signup, login and guest sign-in.
type AuthResult struct {
	User struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		Email       string `json:"email"`
		IsAnonymous bool   `json:"isAnonymous"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignUp registers a password identity and stores the access token.
func (c *Client) SignUp(ctx context.Context, email, username, password string) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/signup", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
}

// LogIn authenticates a password identity and stores the access token.
func (c *Client) LogIn(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignInGuest creates an anonymous identity and stores the access token.
func (c *Client) SignInGuest(ctx context.Context) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/guest", struct{}{})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return AuthResult{}, err
	}
	c.token = result.AccessToken
	return result, nil
}

// CreateSession persists a draft and returns its assigned identifier.
func (c *Client) CreateSession(ctx context.Context, draft model.StudySession) (uuid.UUID, error) {
	var created model.StudySession
	if err := c.do(ctx, http.MethodPost, "/api/sessions", draft, &created); err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

// ListSessions returns the caller's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]model.StudySession, error) {
	var sessions []model.StudySession
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateSession applies a partial update.
func (c *Client) UpdateSession(ctx context.Context, id uuid.UUID, update model.SessionUpdate) error {
	return c.do(ctx, http.MethodPatch, "/api/sessions/"+id.String(), update, nil)
}

// DeleteSession deletes a session.
func (c *Client) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+id.String(), nil, nil)
}

// ListPublicSessions returns publicly shared sessions with creator names.
func (c *Client) ListPublicSessions(ctx context.Context) ([]model.PublicSession, error) {
	var sessions []model.PublicSession
	if err := c.do(ctx, http.MethodGet, "/api/sessions/public", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CopyPublicSession copies a public deck and returns the new identifier.
func (c *Client) CopyPublicSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var copied model.StudySession
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id.String()+"/copy", nil, &copied); err != nil {
		return uuid.Nil, err
	}
	return copied.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistenceUnavailable, err)
	}
	defer resp.Body.Close()

	if err := errorFromStatus(resp.StatusCode); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorFromStatus maps HTTP statuses back to the domain error taxonomy.
func errorFromStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return model.ErrNotAuthenticated
	case status == http.StatusForbidden:
		return model.ErrAnonymousForbidden
	case status == http.StatusNotFound:
		return model.ErrNotFound
	case status == http.StatusConflict:
		return model.ErrEmailTaken
	case status == http.StatusServiceUnavailable:
		return model.ErrPersistenceUnavailable
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}
