package assignmate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// Client is an HTTP client for the Assignmate API. The session cookie set
// by Login rides in the client's jar, so one Client represents one
// authenticated user. No timeout is imposed beyond the transport's default,
// and an issued request is never aborted by this layer.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

// Login authenticates and stores the session cookie for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/login", body, nil)
}

// Logout clears the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// ListAssignments returns the caller's assignments, due date ascending.
func (c *Client) ListAssignments(ctx context.Context) ([]Assignment, error) {
	var assignments []Assignment
	if err := c.do(ctx, http.MethodGet, "/api/assignments", nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// CreateAssignment creates a new assignment and returns the server record.
func (c *Client) CreateAssignment(ctx context.Context, input CreateAssignmentInput) (*Assignment, error) {
	var assignment Assignment
	if err := c.do(ctx, http.MethodPost, "/api/assignments", input, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateAssignment applies a partial update and returns the server record.
func (c *Client) UpdateAssignment(ctx context.Context, id string, input UpdateAssignmentInput) (*Assignment, error) {
	var assignment Assignment
	if err := c.do(ctx, http.MethodPatch, "/api/assignments/"+id, input, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// DeleteAssignment removes an assignment permanently.
func (c *Client) DeleteAssignment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/assignments/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
