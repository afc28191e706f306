package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-track/kairos/internal/model"
)

func ptrInt64(v int64) *int64 { return &v }

func TestSnapshot_ApplyIsCopyOnWrite(t *testing.T) {
	before := Empty()
	ws := model.Workspace{CommonData: model.CommonData{ID: "w-1"}, Name: "Personal"}

	after := before.Apply(ws)

	assert.Empty(t, before.Workspaces, "published snapshot must never change")
	require.Len(t, after.Workspaces, 1)
	assert.Equal(t, "Personal", after.Workspaces["w-1"].Name)
}

func TestSnapshot_ApplyUser(t *testing.T) {
	snap := Empty().Apply(model.User{
		CommonData: model.CommonData{ID: "u-1"},
		Email:      "ada@example.com",
	})

	require.NotNil(t, snap.User)
	assert.Equal(t, "ada@example.com", snap.User.Email)
}

func TestSnapshot_Remove(t *testing.T) {
	before := Empty().Apply(model.TimeEntry{CommonData: model.CommonData{ID: "te-1"}})

	after := before.Remove(model.KindTimeEntry, "te-1")

	assert.Len(t, before.TimeEntries, 1)
	assert.Empty(t, after.TimeEntries)
}

func TestSnapshot_Lookup(t *testing.T) {
	snap := Empty().
		Apply(model.Workspace{CommonData: model.CommonData{ID: "w-1"}}).
		Apply(model.User{CommonData: model.CommonData{ID: "u-1"}})

	rec, ok := snap.Lookup(model.KindWorkspace, "w-1")
	require.True(t, ok)
	assert.Equal(t, model.KindWorkspace, rec.Kind())

	rec, ok = snap.Lookup(model.KindUser, "u-1")
	require.True(t, ok)
	assert.Equal(t, model.KindUser, rec.Kind())

	_, ok = snap.Lookup(model.KindWorkspace, "missing")
	assert.False(t, ok)
}

func TestSnapshot_LookupByRemoteID(t *testing.T) {
	snap := Empty().
		Apply(model.Project{CommonData: model.CommonData{ID: "p-1", RemoteID: ptrInt64(42)}}).
		Apply(model.Project{CommonData: model.CommonData{ID: "p-2"}})

	rec, ok := snap.LookupByRemoteID(model.KindProject, 42)
	require.True(t, ok)
	assert.Equal(t, "p-1", rec.Meta().ID)

	_, ok = snap.LookupByRemoteID(model.KindProject, 99)
	assert.False(t, ok)
}

func TestSnapshot_RemoteID(t *testing.T) {
	snap := Empty().
		Apply(model.Workspace{CommonData: model.CommonData{ID: "w-1", RemoteID: ptrInt64(777)}}).
		Apply(model.Workspace{CommonData: model.CommonData{ID: "w-2"}})

	id, ok := snap.RemoteID(model.KindWorkspace, "w-1")
	require.True(t, ok)
	assert.Equal(t, int64(777), id)

	_, ok = snap.RemoteID(model.KindWorkspace, "w-2")
	assert.False(t, ok, "row without server identity has no remote id")

	_, ok = snap.RemoteID(model.KindWorkspace, "missing")
	assert.False(t, ok)
}

func TestInit(t *testing.T) {
	rows := []model.Record{
		model.Workspace{CommonData: model.CommonData{ID: "w-1"}},
		model.TimeEntry{CommonData: model.CommonData{ID: "te-1"}, WorkspaceID: "w-1", Start: time.Now()},
		model.User{CommonData: model.CommonData{ID: "u-1"}},
	}
	prefs := DefaultSettings().With(WithGroupSimilar(true))

	snap := Init(rows, prefs)

	assert.Len(t, snap.Workspaces, 1)
	assert.Len(t, snap.TimeEntries, 1)
	require.NotNil(t, snap.User)
	assert.True(t, snap.Settings.GroupSimilar)
	assert.Zero(t, snap.Version)
}

func TestSnapshot_WithUserCopies(t *testing.T) {
	u := model.User{CommonData: model.CommonData{ID: "u-1"}, Email: "ada@example.com"}
	snap := Empty().WithUser(&u)

	u.Email = "changed@example.com"
	assert.Equal(t, "ada@example.com", snap.User.Email)

	cleared := snap.WithUser(nil)
	assert.Nil(t, cleared.User)
	assert.NotNil(t, snap.User)
}
