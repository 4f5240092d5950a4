package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eventpulse/client/internal/logging"
	"github.com/eventpulse/client/internal/models"
)

// CredentialFunc supplies the current bearer credential, or "" when the
// session is unauthenticated.
type CredentialFunc func() string

// Client talks to the request/response half of the event service. All
// catalog data arrives over the push channel instead; this client only
// carries session and interaction mutations.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential CredentialFunc
}

// New constructs a client for the service rooted at baseURL. credential may
// be nil for a client that only performs unauthenticated calls.
func New(baseURL string, credential CredentialFunc) *Client {
	if credential == nil {
		credential = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		credential: credential,
	}
}

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// Login exchanges credentials for a bearer token and identity in one round trip.
func (c *Client) Login(ctx context.Context, email, password string) (models.Credentials, error) {
	var creds models.Credentials
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, &creds, false); err != nil {
		return models.Credentials{}, err
	}
	return creds, nil
}

// Register creates an account and authenticates it in the same response.
func (c *Client) Register(ctx context.Context, registration models.Registration) (models.Credentials, error) {
	var creds models.Credentials
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", registration, &creds, false); err != nil {
		return models.Credentials{}, err
	}
	return creds, nil
}

// ForgotPassword asks the server to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", payload, nil, false)
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	payload := map[string]string{"token": token, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", payload, nil, false)
}

// Me validates the bearer credential and returns the identity it belongs to.
func (c *Client) Me(ctx context.Context) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &profile, true); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// UpdateProfile sends only the changed fields and returns the server's
// canonical profile.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodPut, "/api/auth/me", update, &profile, true); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// DeleteAccount removes the authenticated account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/auth/me", nil, nil, true)
}

// LikedEventIDs returns the ids of every event the user has liked.
func (c *Client) LikedEventIDs(ctx context.Context) ([]string, error) {
	return c.eventIDList(ctx, "/api/auth/liked-events")
}

// GoingEventIDs returns the ids of every event the user marked as going.
func (c *Client) GoingEventIDs(ctx context.Context) ([]string, error) {
	return c.eventIDList(ctx, "/api/auth/going-events")
}

func (c *Client) eventIDList(ctx context.Context, path string) ([]string, error) {
	var ids []string
	if err := c.do(ctx, http.MethodGet, path, nil, &ids, true); err != nil {
		return nil, err
	}
	return ids, nil
}

// Counters carries the server-authoritative interaction counts returned by
// every toggle endpoint.
type Counters struct {
	LikeCount  int `json:"like_count"`
	GoingCount int `json:"going_count"`
}

// Like marks the event as liked and returns the updated counters.
func (c *Client) Like(ctx context.Context, kind models.EventKind, eventID string) (Counters, error) {
	return c.interact(ctx, kind, eventID, "like")
}

// Unlike removes a like mark and returns the updated counters.
func (c *Client) Unlike(ctx context.Context, kind models.EventKind, eventID string) (Counters, error) {
	return c.interact(ctx, kind, eventID, "unlike")
}

// Going marks the event as going and returns the updated counters.
func (c *Client) Going(ctx context.Context, kind models.EventKind, eventID string) (Counters, error) {
	return c.interact(ctx, kind, eventID, "going")
}

// Ungoing removes a going mark and returns the updated counters.
func (c *Client) Ungoing(ctx context.Context, kind models.EventKind, eventID string) (Counters, error) {
	return c.interact(ctx, kind, eventID, "ungoing")
}

func (c *Client) interact(ctx context.Context, kind models.EventKind, eventID, action string) (Counters, error) {
	var counters Counters
	path := fmt.Sprintf("/api/events/%s/%s/%s", kind, eventID, action)
	if err := c.do(ctx, http.MethodPost, path, nil, &counters, true); err != nil {
		return Counters{}, err
	}
	return counters, nil
}

// GenerateRecommendations triggers the expensive server-side recommendation
// pass and returns the refreshed profile carrying the suggested event ids.
func (c *Client) GenerateRecommendations(ctx context.Context) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodPost, "/api/auth/generate-recommendations", nil, &profile, true); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, authed bool) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.credential(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logging.FromContext(ctx).Debug("api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
