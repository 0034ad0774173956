package model

import "errors"

// Meeting status values. Transitions are owned by the upstream API and only
// ever go active -> closed; the UI reflects them without enforcing.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// FilterAll is the list-view filter value that disables status filtering.
const FilterAll = "all"

// Meeting is a scheduled meeting as returned by the upstream API.
//
// Date and time fields stay strings on the wire: the upstream emits ISO-8601
// timestamps without a zone offset, which time.Time's JSON decoding rejects.
// Formatting is handled at render time.
type Meeting struct {
	ID          int64  `json:"meeting_id"`
	Title       string `json:"meeting_title"`
	Date        string `json:"meeting_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	ClosedAt    string `json:"closed_at,omitempty"`
	CreatedBy   string `json:"created_by_fullname,omitempty"`
}

// IsActive reports whether the meeting is still open.
func (m Meeting) IsActive() bool {
	return m.Status == StatusActive
}

// FilterByStatus returns the subset of meetings matching the given status.
// The values "" and "all" return the input unchanged. The result is a pure
// projection over an already-fetched collection; callers must not treat it
// as fresh data.
func FilterByStatus(meetings []Meeting, status string) []Meeting {
	if status == "" || status == FilterAll {
		return meetings
	}
	filtered := make([]Meeting, 0, len(meetings))
	for _, m := range meetings {
		if m.Status == status {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// ErrEndNotAfterStart is returned by MeetingDraft.Validate when the end time
// does not come strictly after the start time.
var ErrEndNotAfterStart = errors.New("end time must be after start time")

// MeetingDraft holds the creatable meeting fields collected from the form.
type MeetingDraft struct {
	Title       string `json:"meeting_title"`
	Date        string `json:"meeting_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
}

// Validate checks the draft locally before any upstream call. Only time
// ordering is checked here; everything else is the upstream's rule. Times in
// HH:MM form compare correctly as strings, which is how the values arrive
// from an <input type="time">.
func (d MeetingDraft) Validate() error {
	if d.StartTime != "" && d.EndTime != "" && d.EndTime <= d.StartTime {
		return ErrEndNotAfterStart
	}
	return nil
}
