package remote

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-track/kairos/internal/model"
)

var (
	wireAt   = time.Date(2019, 7, 15, 10, 30, 0, 0, time.UTC)
	wireStop = time.Date(2019, 7, 15, 12, 0, 0, 0, time.UTC)
)

func ptrInt64(v int64) *int64        { return &v }
func ptrStr(s string) *string        { return &s }
func ptrTime(t time.Time) *time.Time { return &t }

// assertWireGolden marshals a record and compares the pretty-printed
// payload against a golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/remote -update
func assertWireGolden(t *testing.T, name string, rec model.Record) {
	t.Helper()
	raw, err := MarshalRecord(rec)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, json.Indent(&buf, raw, "", "  "))
	buf.WriteByte('\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}

func TestMarshalRecord_Project(t *testing.T) {
	assertWireGolden(t, "project_create", model.Project{
		CommonData:        model.CommonData{ID: "p-1", ModifiedAt: wireAt},
		Name:              "Website Redesign",
		Color:             "#06aaf5",
		Active:            true,
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
		ClientID:          ptrStr("c-1"),
		ClientRemoteID:    ptrInt64(88),
	})
}

func TestMarshalRecord_RunningTimeEntry(t *testing.T) {
	assertWireGolden(t, "time_entry_running", model.TimeEntry{
		CommonData:        model.CommonData{ID: "te-1", ModifiedAt: wireAt},
		Description:       "writing docs",
		Start:             wireAt,
		Billable:          true,
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
		UserID:            "u-1",
		UserRemoteID:      ptrInt64(1001),
		TagNames:          model.TagList{"docs", "deep work"},
	})
}

func TestMarshalRecord_StoppedTimeEntry(t *testing.T) {
	assertWireGolden(t, "time_entry_stopped", model.TimeEntry{
		CommonData:        model.CommonData{ID: "te-2", RemoteID: ptrInt64(555), ModifiedAt: wireStop},
		Description:       "standup",
		Start:             wireAt,
		Stop:              ptrTime(wireStop),
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
		UserID:            "u-1",
		UserRemoteID:      ptrInt64(1001),
	})
}

func TestMarshalRecord_ClientTombstone(t *testing.T) {
	assertWireGolden(t, "client_tombstone", model.Client{
		CommonData: model.CommonData{
			ID:         "c-1",
			RemoteID:   ptrInt64(42),
			ModifiedAt: wireAt,
			DeletedAt:  ptrTime(wireAt),
		},
		Name:              "Acme",
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
	})
}

func TestMarshalRecord_User(t *testing.T) {
	assertWireGolden(t, "user", model.User{
		CommonData:               model.CommonData{ID: "u-1", RemoteID: ptrInt64(1001), ModifiedAt: wireAt},
		Email:                    "ada@example.com",
		Fullname:                 "Ada Lovelace",
		APIToken:                 "tok-123",
		DefaultWorkspaceID:       "w-1",
		DefaultWorkspaceRemoteID: ptrInt64(777),
		BeginningOfWeek:          1,
	})
}

func TestMarshalRecord_DurationConvention(t *testing.T) {
	entry := model.TimeEntry{
		CommonData:        model.CommonData{ID: "te-1", ModifiedAt: wireAt},
		Start:             wireAt,
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
	}

	t.Run("running entries carry negative start-anchored duration", func(t *testing.T) {
		raw, err := MarshalRecord(entry)
		require.NoError(t, err)
		var w map[string]any
		require.NoError(t, json.Unmarshal(raw, &w))
		assert.Equal(t, float64(-wireAt.Unix()), w["duration"])
		_, hasStop := w["stop"]
		assert.False(t, hasStop)
	})

	t.Run("stopped entries carry elapsed seconds", func(t *testing.T) {
		stopped := entry
		stopped.Stop = ptrTime(wireAt.Add(90 * time.Minute))
		raw, err := MarshalRecord(stopped)
		require.NoError(t, err)
		var w map[string]any
		require.NoError(t, json.Unmarshal(raw, &w))
		assert.Equal(t, float64(5400), w["duration"])
	})
}

func TestMarshalRecord_MissingRelationFailsFast(t *testing.T) {
	entry := model.TimeEntry{
		CommonData:  model.CommonData{ID: "te-1", ModifiedAt: wireAt},
		Start:       wireAt,
		WorkspaceID: "w-1", // no workspace remote id resolved
	}

	_, err := MarshalRecord(entry)
	require.Error(t, err)
	assert.True(t, model.IsMissingRemoteID(err))
}

func TestMarshalRecord_ProjectWithoutClientOmitsCid(t *testing.T) {
	raw, err := MarshalRecord(model.Project{
		CommonData:        model.CommonData{ID: "p-1", ModifiedAt: wireAt},
		Name:              "Solo",
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
	})
	require.NoError(t, err)

	var w map[string]any
	require.NoError(t, json.Unmarshal(raw, &w))
	_, hasCid := w["cid"]
	assert.False(t, hasCid)
}

func TestUnmarshalRecord_TimeEntry(t *testing.T) {
	payload := []byte(`{
		"id": 5005,
		"wid": 777,
		"pid": 42,
		"uid": 1001,
		"description": "pulled entry",
		"billable": true,
		"duronly": false,
		"start": "2019-07-15T10:30:00Z",
		"stop": "2019-07-15T12:00:00Z",
		"duration": 5400,
		"tags": ["docs"],
		"at": "2019-07-15T12:00:00Z"
	}`)

	rec, err := UnmarshalRecord(model.KindTimeEntry, payload)
	require.NoError(t, err)

	e, ok := rec.(model.TimeEntry)
	require.True(t, ok)
	assert.Empty(t, e.ID, "local identity is assigned by the reducer, never the wire")
	require.NotNil(t, e.RemoteID)
	assert.Equal(t, int64(5005), *e.RemoteID)
	require.NotNil(t, e.WorkspaceRemoteID)
	assert.Equal(t, int64(777), *e.WorkspaceRemoteID)
	require.NotNil(t, e.ProjectRemoteID)
	assert.Equal(t, int64(42), *e.ProjectRemoteID)
	require.NotNil(t, e.UserRemoteID)
	assert.Equal(t, int64(1001), *e.UserRemoteID)
	assert.Equal(t, model.TagList{"docs"}, e.TagNames)
	assert.True(t, e.Stop.Equal(wireStop))
}

func TestUnmarshalRecord_ServerDeletedBecomesTombstone(t *testing.T) {
	payload := []byte(`{
		"id": 42,
		"wid": 777,
		"name": "Acme",
		"at": "2019-07-15T10:30:00Z",
		"server_deleted_at": "2019-07-15T11:00:00Z"
	}`)

	rec, err := UnmarshalRecord(model.KindClient, payload)
	require.NoError(t, err)
	assert.True(t, rec.Meta().IsDeleted())
}

func TestUnmarshalRecord_ZeroIDStaysNil(t *testing.T) {
	rec, err := UnmarshalRecord(model.KindWorkspace, []byte(`{"name":"Fresh","at":"2019-07-15T10:30:00Z"}`))
	require.NoError(t, err)
	assert.Nil(t, rec.Meta().RemoteID)
}

func TestMarshalRecord_RoundTrip(t *testing.T) {
	in := model.Project{
		CommonData:        model.CommonData{ID: "p-1", RemoteID: ptrInt64(42), ModifiedAt: wireAt},
		Name:              "Website",
		Color:             "#06aaf5",
		Active:            true,
		Billable:          true,
		WorkspaceID:       "w-1",
		WorkspaceRemoteID: ptrInt64(777),
	}

	raw, err := MarshalRecord(in)
	require.NoError(t, err)
	rec, err := UnmarshalRecord(model.KindProject, raw)
	require.NoError(t, err)

	out := rec.(model.Project)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Color, out.Color)
	assert.Equal(t, *in.RemoteID, *out.RemoteID)
	assert.Equal(t, *in.WorkspaceRemoteID, *out.WorkspaceRemoteID)
	assert.True(t, in.ModifiedAt.Equal(out.ModifiedAt))
}

func TestUnmarshalRecord_UnknownKind(t *testing.T) {
	_, err := UnmarshalRecord(model.KindWorkspaceUser, []byte(`{}`))
	require.Error(t, err)
}
