// Package apiclient is the single chokepoint for requests to the upstream
// meeting-management REST API. It attaches the bearer token and the /api/v1
// base path, and surfaces failures immediately: no retries, no caching, no
// queueing.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// basePath is the version prefix every upstream endpoint lives under.
const basePath = "/api/v1"

// ErrNotFound marks upstream 404 responses. Callers distinguish the detail
// view's not-found state from other failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Error is a failed upstream response carrying the HTTP status and, when the
// body was a decodable {"detail": ...} payload, the server's message.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("upstream API returned status %d", e.StatusCode)
}

// Is makes errors.Is(err, ErrNotFound) work for 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the upstream API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given upstream base URL (scheme://host[:port],
// without the /api/v1 suffix).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// do performs one request. A non-empty token is attached as a bearer
// credential. A non-nil body is JSON-encoded. Responses outside 2xx become
// *Error; when out is non-nil a 2xx body is decoded into it.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// decodeError extracts the upstream detail message, tolerating non-JSON
// bodies from proxies.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &payload) == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
