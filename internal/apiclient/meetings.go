package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/meetdesk/meetdesk/internal/model"
)

// ListOptions carries the pagination parameters the list endpoint accepts.
// Zero values are omitted from the query string.
type ListOptions struct {
	Skip  int
	Limit int
}

// ListMeetings fetches the meeting collection.
// GET /api/v1/meetings
func (c *Client) ListMeetings(ctx context.Context, token string, opts ListOptions) ([]model.Meeting, error) {
	path := "/meetings"
	query := url.Values{}
	if opts.Skip > 0 {
		query.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var meetings []model.Meeting
	if err := c.do(ctx, http.MethodGet, path, token, nil, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// GetMeeting fetches a single meeting. A missing meeting satisfies
// errors.Is(err, ErrNotFound).
// GET /api/v1/meetings/{id}
func (c *Client) GetMeeting(ctx context.Context, token string, id int64) (model.Meeting, error) {
	var meeting model.Meeting
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/meetings/%d", id), token, nil, &meeting)
	return meeting, err
}

// CreateMeeting submits a draft and returns the created meeting, including
// the server-assigned identifier.
// POST /api/v1/meetings
func (c *Client) CreateMeeting(ctx context.Context, token string, draft model.MeetingDraft) (model.Meeting, error) {
	var meeting model.Meeting
	err := c.do(ctx, http.MethodPost, "/meetings", token, draft, &meeting)
	return meeting, err
}

// CloseMeeting transitions a meeting's status to closed. The transition is
// enforced upstream; this call merely requests it.
// POST /api/v1/meetings/{id}/close
func (c *Client) CloseMeeting(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/meetings/%d/close", id), token, nil, nil)
}

// DeleteMeeting removes a meeting.
// DELETE /api/v1/meetings/{id}
func (c *Client) DeleteMeeting(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/meetings/%d", id), token, nil, nil)
}

// Ping reports whether the upstream API is reachable. Used by the health
// endpoint only; any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+basePath+"/meetings", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
