package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetdesk/meetdesk/internal/model"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"), "login must not carry a bearer token")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer"}`))
	}))
	defer srv.Close()

	tok, err := New(srv.URL).Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect username or password", apiErr.Error())
}

func TestMeAttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":7,"username":"alice","roles":["admin_main"]}`))
	}))
	defer srv.Close()

	user, err := New(srv.URL).Me(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.True(t, user.IsAdmin())
}

func TestListMeetingsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/meetings", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("skip"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"meeting_id":1,"meeting_title":"Q4 Review","status":"active"}]`))
	}))
	defer srv.Close()

	meetings, err := New(srv.URL).ListMeetings(context.Background(), "tok", ListOptions{Skip: 10, Limit: 25})
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "Q4 Review", meetings[0].Title)
}

func TestListMeetingsNoQueryForZeroOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	meetings, err := New(srv.URL).ListMeetings(context.Background(), "tok", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, meetings)
}

func TestGetMeetingNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Meeting not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetMeeting(context.Background(), "tok", 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "404 should satisfy errors.Is(err, ErrNotFound)")
}

func TestCreateMeeting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/meetings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"meeting_id":42,"meeting_title":"Kickoff","status":"active"}`))
	}))
	defer srv.Close()

	meeting, err := New(srv.URL).CreateMeeting(context.Background(), "tok", model.MeetingDraft{
		Title: "Kickoff", Date: "2024-12-01", StartTime: "09:00", EndTime: "10:00", Location: "Room A",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), meeting.ID)
}

func TestCloseAndDeleteMeeting(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(srv.URL)

	require.NoError(t, client.CloseMeeting(context.Background(), "tok", 5))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/meetings/5/close", gotPath)

	require.NoError(t, client.DeleteMeeting(context.Background(), "tok", 5))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/v1/meetings/5", gotPath)
}

func TestErrorWithoutDetailBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetMeeting(context.Background(), "tok", 1)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "502")
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).ListMeetings(ctx, "tok", ListOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
