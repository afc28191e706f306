package state

import (
	"github.com/kairos-track/kairos/internal/model"
)

// AuthResult is the closed set of authentication outcomes the UI
// consumes. It travels through the ordinary message pipeline; the sync
// layer never throws auth failures across the reducer boundary.
type AuthResult int

const (
	AuthNone AuthResult = iota
	AuthSuccess
	AuthInvalidCredentials
	AuthNoDefaultWorkspace
	AuthNetworkError
	AuthSystemError
	AuthNoGoogleAccount
)

func (r AuthResult) String() string {
	switch r {
	case AuthNone:
		return "none"
	case AuthSuccess:
		return "success"
	case AuthInvalidCredentials:
		return "invalid-credentials"
	case AuthNoDefaultWorkspace:
		return "no-default-workspace"
	case AuthNetworkError:
		return "network-error"
	case AuthSystemError:
		return "system-error"
	case AuthNoGoogleAccount:
		return "no-google-account"
	default:
		return "unknown"
	}
}

// RequestInfo is the in-flight request bookkeeping the UI observes.
type RequestInfo struct {
	AuthResult  AuthResult
	Syncing     bool
	Downloading bool
}

// Snapshot is a single immutable view of all tracked data. Every field
// is replaced wholesale by the reducer; a published snapshot is never
// mutated, so it is safe to read from any goroutine without locking.
type Snapshot struct {
	Version int64

	Workspaces     map[string]model.Workspace
	Clients        map[string]model.Client
	Projects       map[string]model.Project
	Tasks          map[string]model.Task
	Tags           map[string]model.Tag
	TimeEntries    map[string]model.TimeEntry
	WorkspaceUsers map[string]model.WorkspaceUser
	ProjectUsers   map[string]model.ProjectUser

	User     *model.User
	Settings SettingsState
	Requests RequestInfo
}

// Empty returns a snapshot with all tables initialized and empty.
func Empty() Snapshot {
	return Snapshot{
		Workspaces:     map[string]model.Workspace{},
		Clients:        map[string]model.Client{},
		Projects:       map[string]model.Project{},
		Tasks:          map[string]model.Task{},
		Tags:           map[string]model.Tag{},
		TimeEntries:    map[string]model.TimeEntry{},
		WorkspaceUsers: map[string]model.WorkspaceUser{},
		ProjectUsers:   map[string]model.ProjectUser{},
		Settings:       DefaultSettings(),
	}
}

// Init builds the process-start snapshot from persisted rows.
func Init(rows []model.Record, settings SettingsState) Snapshot {
	snap := Empty()
	snap.Settings = settings
	for _, r := range rows {
		snap = snap.Apply(r)
	}
	return snap
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Apply folds one canonical row into a copy of the snapshot. The caller
// passes rows as returned by the row store's write, not the pre-write
// intention, so the in-memory index always matches durable storage.
func (s Snapshot) Apply(rec model.Record) Snapshot {
	switch r := rec.(type) {
	case model.Workspace:
		s.Workspaces = cloneMap(s.Workspaces)
		s.Workspaces[r.ID] = r
	case model.Client:
		s.Clients = cloneMap(s.Clients)
		s.Clients[r.ID] = r
	case model.Project:
		s.Projects = cloneMap(s.Projects)
		s.Projects[r.ID] = r
	case model.Task:
		s.Tasks = cloneMap(s.Tasks)
		s.Tasks[r.ID] = r
	case model.Tag:
		s.Tags = cloneMap(s.Tags)
		s.Tags[r.ID] = r
	case model.TimeEntry:
		s.TimeEntries = cloneMap(s.TimeEntries)
		s.TimeEntries[r.ID] = r
	case model.WorkspaceUser:
		s.WorkspaceUsers = cloneMap(s.WorkspaceUsers)
		s.WorkspaceUsers[r.ID] = r
	case model.ProjectUser:
		s.ProjectUsers = cloneMap(s.ProjectUsers)
		s.ProjectUsers[r.ID] = r
	case model.User:
		u := r
		s.User = &u
	}
	return s
}

// ApplyAll folds a batch of canonical rows.
func (s Snapshot) ApplyAll(recs []model.Record) Snapshot {
	for _, r := range recs {
		s = s.Apply(r)
	}
	return s
}

// Remove drops a row from a copy of the snapshot. Used for hard
// deletes of rows the server has never seen; synced rows are
// tombstoned instead so the deletion can propagate.
func (s Snapshot) Remove(kind model.Kind, id string) Snapshot {
	switch kind {
	case model.KindWorkspace:
		s.Workspaces = cloneMap(s.Workspaces)
		delete(s.Workspaces, id)
	case model.KindClient:
		s.Clients = cloneMap(s.Clients)
		delete(s.Clients, id)
	case model.KindProject:
		s.Projects = cloneMap(s.Projects)
		delete(s.Projects, id)
	case model.KindTask:
		s.Tasks = cloneMap(s.Tasks)
		delete(s.Tasks, id)
	case model.KindTag:
		s.Tags = cloneMap(s.Tags)
		delete(s.Tags, id)
	case model.KindTimeEntry:
		s.TimeEntries = cloneMap(s.TimeEntries)
		delete(s.TimeEntries, id)
	case model.KindWorkspaceUser:
		s.WorkspaceUsers = cloneMap(s.WorkspaceUsers)
		delete(s.WorkspaceUsers, id)
	case model.KindProjectUser:
		s.ProjectUsers = cloneMap(s.ProjectUsers)
		delete(s.ProjectUsers, id)
	case model.KindUser:
		if s.User != nil && s.User.ID == id {
			s.User = nil
		}
	}
	return s
}

// WithRequests replaces the request bookkeeping.
func (s Snapshot) WithRequests(r RequestInfo) Snapshot {
	s.Requests = r
	return s
}

// WithSettings replaces the settings state.
func (s Snapshot) WithSettings(set SettingsState) Snapshot {
	s.Settings = set
	return s
}

// WithUser replaces the user record, or clears it when nil.
func (s Snapshot) WithUser(u *model.User) Snapshot {
	if u == nil {
		s.User = nil
		return s
	}
	cp := *u
	s.User = &cp
	return s
}

// Lookup returns the record with the given kind and local id.
func (s Snapshot) Lookup(kind model.Kind, id string) (model.Record, bool) {
	switch kind {
	case model.KindWorkspace:
		r, ok := s.Workspaces[id]
		return r, ok
	case model.KindClient:
		r, ok := s.Clients[id]
		return r, ok
	case model.KindProject:
		r, ok := s.Projects[id]
		return r, ok
	case model.KindTask:
		r, ok := s.Tasks[id]
		return r, ok
	case model.KindTag:
		r, ok := s.Tags[id]
		return r, ok
	case model.KindTimeEntry:
		r, ok := s.TimeEntries[id]
		return r, ok
	case model.KindWorkspaceUser:
		r, ok := s.WorkspaceUsers[id]
		return r, ok
	case model.KindProjectUser:
		r, ok := s.ProjectUsers[id]
		return r, ok
	case model.KindUser:
		if s.User != nil && s.User.ID == id {
			return *s.User, true
		}
	}
	return nil, false
}

// LookupByRemoteID returns the record of the given kind carrying the
// server-assigned id. Linear scan; tables are small on a client.
func (s Snapshot) LookupByRemoteID(kind model.Kind, remoteID int64) (model.Record, bool) {
	match := func(c model.CommonData) bool {
		return c.RemoteID != nil && *c.RemoteID == remoteID
	}
	switch kind {
	case model.KindWorkspace:
		for _, r := range s.Workspaces {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindClient:
		for _, r := range s.Clients {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindProject:
		for _, r := range s.Projects {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindTask:
		for _, r := range s.Tasks {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindTag:
		for _, r := range s.Tags {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindTimeEntry:
		for _, r := range s.TimeEntries {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindWorkspaceUser:
		for _, r := range s.WorkspaceUsers {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindProjectUser:
		for _, r := range s.ProjectUsers {
			if match(r.CommonData) {
				return r, true
			}
		}
	case model.KindUser:
		if s.User != nil && match(s.User.CommonData) {
			return *s.User, true
		}
	}
	return nil, false
}

// RemoteID returns the server id for a local id of the given kind.
func (s Snapshot) RemoteID(kind model.Kind, id string) (int64, bool) {
	rec, ok := s.Lookup(kind, id)
	if !ok {
		return 0, false
	}
	meta := rec.Meta()
	if meta.RemoteID == nil {
		return 0, false
	}
	return *meta.RemoteID, true
}
