package apiclient

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

	"github.com/EO-DataHub/eodhp-activity-signup/models"
)

// Client talks to the activities API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// HTTPError is returned when the server answers with a non-success status.
// Message holds the server supplied detail, which may be empty.
type HTTPError struct {
	Message string
	Status  int
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Detail returns the server detail carried by err, if any.
func Detail(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return ""
}

// IsRejected reports whether err is a well-formed rejection from the
// server rather than a transport or decoding failure.
func IsRejected(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// NewClient creates a new instance of Client. A zero timeout leaves the
// transport defaults in place.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: &LoggingTransport{},
		},
	}
}

// GetActivities retrieves the full activity catalog.
func (c *Client) GetActivities(ctx context.Context) (models.Catalog, error) {
	respBody, err := c.makeRequest(ctx, http.MethodGet, c.BaseURL+"/activities", "", "", nil)
	if err != nil {
		return nil, err
	}

	var catalog models.Catalog
	if err := json.Unmarshal(respBody, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return catalog, nil
}

// GetCurrentUser returns the identity the token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context, token string) (*models.User, error) {
	respBody, err := c.makeRequest(ctx, http.MethodGet, c.BaseURL+"/auth/me", token, "", nil)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	data := url.Values{}
	data.Set("username", username)
	data.Set("password", password)

	respBody, err := c.makeRequest(ctx, http.MethodPost, c.BaseURL+"/auth/login", "",
		"application/x-www-form-urlencoded", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}

	var loginResponse models.LoginResponse
	if err := json.Unmarshal(respBody, &loginResponse); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &loginResponse, nil
}

// Signup registers email for the named activity.
func (c *Client) Signup(ctx context.Context, token, activity, email string) (*models.MessageResponse, error) {
	return c.membership(ctx, http.MethodPost, token, activity, "signup", email)
}

// Unregister removes email from the named activity.
func (c *Client) Unregister(ctx context.Context, token, activity, email string) (*models.MessageResponse, error) {
	return c.membership(ctx, http.MethodDelete, token, activity, "unregister", email)
}

func (c *Client) membership(ctx context.Context, method, token, activity, action, email string) (*models.MessageResponse, error) {
	respBody, err := c.makeRequest(ctx, method, MembershipURL(c.BaseURL, activity, action, email), token, "", nil)
	if err != nil {
		return nil, err
	}

	var msg models.MessageResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &msg, nil
}

// MembershipURL builds /activities/{activity}/{action}?email={email} with
// the activity name and email percent-encoded.
func MembershipURL(baseURL, activity, action, email string) string {
	query := url.Values{}
	query.Set("email", email)
	return fmt.Sprintf("%s/activities/%s/%s?%s", baseURL, url.PathEscape(activity), action, query.Encode())
}

// Helper function for making HTTP requests to the activities API.
func (c *Client) makeRequest(ctx context.Context, method, url, token, contentType string, body io.Reader) ([]byte, error) {
	if body == nil {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResponse models.ErrorResponse
		// Only a JSON body is a rejection; anything else is a failed request.
		if err := json.Unmarshal(respBody, &errResponse); err != nil {
			return nil, fmt.Errorf("failed to decode error response (status %d): %w", resp.StatusCode, err)
		}
		return nil, &HTTPError{Message: errResponse.Text(), Status: resp.StatusCode}
	}

	return respBody, nil
}
