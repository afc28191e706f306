package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-track/kairos/internal/model"
)

func pendingEntry() model.TimeEntry {
	return model.TimeEntry{
		CommonData: model.CommonData{
			ID:         "te-1",
			ModifiedAt: wireAt,
			SyncState:  model.SyncCreatePending,
		},
		Description:       "writing docs",
		Start:             wireAt,
		Stop:              ptrTime(wireStop),
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
		UserID:            "u-1",
		UserRemoteID:      ptrInt64(1001),
	}
}

func TestHTTPClient_Create(t *testing.T) {
	var gotPath, gotMethod, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotUser, _, _ = r.BasicAuth()

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in["id"] = 9001
		in["at"] = "2019-07-15T12:30:00Z"
		json.NewEncoder(w).Encode(map[string]any{"data": in})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok-123")
	out, err := c.Create(context.Background(), pendingEntry())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/time_entries", gotPath)
	assert.Equal(t, "tok-123", gotUser, "api token travels as basic auth user")

	entry := out.(model.TimeEntry)
	assert.Equal(t, "te-1", entry.ID, "server response merges onto the local identity")
	require.NotNil(t, entry.RemoteID)
	assert.Equal(t, int64(9001), *entry.RemoteID)
	assert.Equal(t, model.SyncSynced, entry.SyncState)
	assert.Equal(t, time.Date(2019, 7, 15, 12, 30, 0, 0, time.UTC), entry.ModifiedAt)
}

func TestHTTPClient_UpdateRequiresRemoteID(t *testing.T) {
	c := NewHTTPClient("http://unused", "tok")

	_, err := c.Update(context.Background(), pendingEntry())
	require.Error(t, err)
	assert.True(t, model.IsMissingRemoteID(err))
}

func TestHTTPClient_UpdateAddressesByRemoteID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var in map[string]any
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]any{"data": in})
	}))
	defer srv.Close()

	entry := pendingEntry()
	entry.RemoteID = ptrInt64(9001)
	entry.SyncState = model.SyncUpdatePending

	c := NewHTTPClient(srv.URL, "tok")
	_, err := c.Update(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "/time_entries/9001", gotPath)
}

func TestHTTPClient_Delete(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	entry := pendingEntry()
	entry.RemoteID = ptrInt64(9001)

	c := NewHTTPClient(srv.URL, "tok")
	require.NoError(t, c.Delete(context.Background(), entry))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/time_entries/9001", gotPath)
}

func TestHTTPClient_StatusErrorsClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	_, err := c.Create(context.Background(), pendingEntry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsTransient(err))
}

func TestHTTPClient_ListTimeEntries(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 5005, "wid": 777, "description": "one", "start": "2019-07-15T10:30:00Z", "at": "2019-07-15T12:00:00Z"},
			{"id": 5006, "wid": 777, "description": "two", "start": "2019-07-14T10:30:00Z", "at": "2019-07-15T12:00:00Z"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	entries, err := c.ListTimeEntries(context.Background(), wireAt.AddDate(0, 0, -9), 9)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "days=9")
	assert.Contains(t, gotQuery, "from=2019-07-06T10%3A30%3A00Z")
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Description)
	require.NotNil(t, entries[1].RemoteID)
	assert.Equal(t, int64(5006), *entries[1].RemoteID)
}

func TestHTTPClient_GetChanges(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		json.NewEncoder(w).Encode(map[string]any{
			"workspaces": []map[string]any{
				{"id": 777, "name": "Personal", "at": "2019-07-15T12:00:00Z"},
			},
			"projects": []map[string]any{
				{"id": 42, "wid": 777, "name": "Website", "active": true, "at": "2019-07-15T12:00:00Z"},
			},
			"time_entries": []map[string]any{
				{"id": 5005, "wid": 777, "pid": 42, "description": "pulled", "start": "2019-07-15T10:30:00Z", "at": "2019-07-15T12:00:00Z"},
			},
			"user":  map[string]any{"id": 1001, "email": "ada@example.com", "default_wid": 777, "at": "2019-07-15T12:00:00Z"},
			"since": "2019-07-15T12:00:00Z",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	since := wireAt
	bundle, err := c.GetChanges(context.Background(), &since)
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/me/changes?since=")
	require.Len(t, bundle.Workspaces, 1)
	require.Len(t, bundle.Projects, 1)
	require.Len(t, bundle.TimeEntries, 1)
	require.NotNil(t, bundle.User)
	assert.Equal(t, "ada@example.com", bundle.User.Email)
	assert.Equal(t, time.Date(2019, 7, 15, 12, 0, 0, 0, time.UTC), bundle.ServerTime)

	// Records flattens parent-before-child for the reducer.
	recs := bundle.Records()
	require.Len(t, recs, 4)
	assert.Equal(t, model.KindWorkspace, recs[0].Kind())
	assert.Equal(t, model.KindUser, recs[3].Kind())
}

func TestHTTPClient_GetUser(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"id": 1001, "email": "ada@example.com", "api_token": "fresh-tok",
				"default_wid": 777, "at": "2019-07-15T12:00:00Z",
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")

	t.Run("password credentials", func(t *testing.T) {
		user, err := c.GetUser(context.Background(), Credentials{Email: "ada@example.com", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", gotUser)
		assert.Equal(t, "secret", gotPass)
		require.NotNil(t, user.DefaultWorkspaceRemoteID)
		assert.Equal(t, int64(777), *user.DefaultWorkspaceRemoteID)
	})

	t.Run("api token wins when both are set", func(t *testing.T) {
		_, err := c.GetUser(context.Background(), Credentials{Email: "ada@example.com", Password: "secret", APIToken: "tok-9"})
		require.NoError(t, err)
		assert.Equal(t, "tok-9", gotUser)
		assert.Equal(t, "api_token", gotPass)
	})
}

func TestHTTPClient_SignupSendsNoAuth(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, hadAuth = r.BasicAuth()
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": 2002, "email": "new@example.com", "at": "2019-07-15T12:00:00Z"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	user, err := c.Signup(context.Background(), Credentials{Email: "new@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.False(t, hadAuth, "signup happens before any credentials exist")
	require.NotNil(t, user.RemoteID)
	assert.Equal(t, int64(2002), *user.RemoteID)
}

func TestHTTPClient_UnpushableKind(t *testing.T) {
	c := NewHTTPClient("http://unused", "tok")

	_, err := c.Create(context.Background(), model.Workspace{
		CommonData: model.CommonData{ID: "w-1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be pushed")
}
