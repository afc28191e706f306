package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kairos-track/kairos/internal/model"
)

// Wire projections. Field names follow the service's short-name
// convention (wid, pid, tid, uid) and are deliberately distinct from
// the storage row shapes; the mappers below translate both ways.

type wireWorkspace struct {
	ID              int64      `json:"id,omitempty"`
	Name            string     `json:"name"`
	Admin           bool       `json:"admin"`
	DefaultHourly   float64    `json:"default_hourly_rate"`
	DefaultCurrency string     `json:"default_currency"`
	At              time.Time  `json:"at"`
	ServerDeletedAt *time.Time `json:"server_deleted_at,omitempty"`
}

type wireClient struct {
	ID              int64      `json:"id,omitempty"`
	Wid             int64      `json:"wid"`
	Name            string     `json:"name"`
	At              time.Time  `json:"at"`
	ServerDeletedAt *time.Time `json:"server_deleted_at,omitempty"`
}

type wireProject struct {
	ID              int64      `json:"id,omitempty"`
	Wid             int64      `json:"wid"`
	Cid             *int64     `json:"cid,omitempty"`
	Name            string     `json:"name"`
	Color           string     `json:"color"`
	Active          bool       `json:"active"`
	Billable        bool       `json:"billable"`
	At              time.Time  `json:"at"`
	ServerDeletedAt *time.Time `json:"server_deleted_at,omitempty"`
}

type wireTask struct {
	ID              int64      `json:"id,omitempty"`
	Wid             int64      `json:"wid"`
	Pid             int64      `json:"pid"`
	Name            string     `json:"name"`
	Active          bool       `json:"active"`
	At              time.Time  `json:"at"`
	ServerDeletedAt *time.Time `json:"server_deleted_at,omitempty"`
}

type wireTag struct {
	ID              int64      `json:"id,omitempty"`
	Wid             int64      `json:"wid"`
	Name            string     `json:"name"`
	At              time.Time  `json:"at"`
	ServerDeletedAt *time.Time `json:"server_deleted_at,omitempty"`
}

type wireTimeEntry struct {
	ID              int64      `json:"id,omitempty"`
	Wid             int64      `json:"wid"`
	Pid             *int64     `json:"pid,omitempty"`
	Tid             *int64     `json:"tid,omitempty"`
	UID             int64      `json:"uid,omitempty"`
	Description     string     `json:"description"`
	Billable        bool       `json:"billable"`
	Duronly         bool       `json:"duronly"`
	Start           time.Time  `json:"start"`
	Stop            *time.Time `json:"stop,omitempty"`
	Duration        int64      `json:"duration"`
	Tags            []string   `json:"tags,omitempty"`
	At              time.Time  `json:"at"`
	ServerDeletedAt *time.Time `json:"server_deleted_at,omitempty"`
}

type wireUser struct {
	ID              int64     `json:"id,omitempty"`
	Email           string    `json:"email"`
	Fullname        string    `json:"fullname"`
	APIToken        string    `json:"api_token"`
	DefaultWid      int64     `json:"default_wid"`
	BeginningOfWeek int       `json:"beginning_of_week"`
	At              time.Time `json:"at"`
}

func remoteOf(c model.CommonData) int64 {
	if c.RemoteID == nil {
		return 0
	}
	return *c.RemoteID
}

func deref(p *int64, rec model.Record, relation string) (int64, error) {
	if p == nil {
		return 0, &model.MissingRemoteIDError{
			Kind:     rec.Kind(),
			LocalID:  rec.Meta().ID,
			Relation: relation,
		}
	}
	return *p, nil
}

// MarshalRecord projects a record onto its wire shape. Every foreign
// key must already carry a remote id; a missing one fails fast rather
// than transmitting a malformed reference.
func MarshalRecord(rec model.Record) ([]byte, error) {
	switch r := rec.(type) {
	case model.Workspace:
		return json.Marshal(wireWorkspace{
			ID:              remoteOf(r.CommonData),
			Name:            r.Name,
			Admin:           r.Admin,
			DefaultHourly:   r.DefaultHourly,
			DefaultCurrency: r.DefaultCurrency,
			At:              r.ModifiedAt,
			ServerDeletedAt: r.DeletedAt,
		})
	case model.Client:
		wid, err := deref(r.WorkspaceRemoteID, r, "workspace")
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireClient{
			ID:              remoteOf(r.CommonData),
			Wid:             wid,
			Name:            r.Name,
			At:              r.ModifiedAt,
			ServerDeletedAt: r.DeletedAt,
		})
	case model.Project:
		wid, err := deref(r.WorkspaceRemoteID, r, "workspace")
		if err != nil {
			return nil, err
		}
		w := wireProject{
			ID:              remoteOf(r.CommonData),
			Wid:             wid,
			Name:            r.Name,
			Color:           r.Color,
			Active:          r.Active,
			Billable:        r.Billable,
			At:              r.ModifiedAt,
			ServerDeletedAt: r.DeletedAt,
		}
		if r.ClientID != nil {
			cid, err := deref(r.ClientRemoteID, r, "client")
			if err != nil {
				return nil, err
			}
			w.Cid = &cid
		}
		return json.Marshal(w)
	case model.Task:
		wid, err := deref(r.WorkspaceRemoteID, r, "workspace")
		if err != nil {
			return nil, err
		}
		pid, err := deref(r.ProjectRemoteID, r, "project")
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireTask{
			ID:              remoteOf(r.CommonData),
			Wid:             wid,
			Pid:             pid,
			Name:            r.Name,
			Active:          r.Active,
			At:              r.ModifiedAt,
			ServerDeletedAt: r.DeletedAt,
		})
	case model.Tag:
		wid, err := deref(r.WorkspaceRemoteID, r, "workspace")
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireTag{
			ID:              remoteOf(r.CommonData),
			Wid:             wid,
			Name:            r.Name,
			At:              r.ModifiedAt,
			ServerDeletedAt: r.DeletedAt,
		})
	case model.TimeEntry:
		wid, err := deref(r.WorkspaceRemoteID, r, "workspace")
		if err != nil {
			return nil, err
		}
		w := wireTimeEntry{
			ID:              remoteOf(r.CommonData),
			Wid:             wid,
			Description:     r.Description,
			Billable:        r.Billable,
			Duronly:         r.DurationOnly,
			Start:           r.Start,
			Stop:            r.Stop,
			Tags:            r.TagNames,
			At:              r.ModifiedAt,
			ServerDeletedAt: r.DeletedAt,
		}
		if r.UserRemoteID != nil {
			w.UID = *r.UserRemoteID
		}
		if r.ProjectID != nil {
			pid, err := deref(r.ProjectRemoteID, r, "project")
			if err != nil {
				return nil, err
			}
			w.Pid = &pid
		}
		if r.TaskID != nil {
			tid, err := deref(r.TaskRemoteID, r, "task")
			if err != nil {
				return nil, err
			}
			w.Tid = &tid
		}
		// Running entries travel as negative duration anchored at the
		// start instant, the server's convention.
		if r.Stop != nil {
			w.Duration = int64(r.Stop.Sub(r.Start).Seconds())
		} else {
			w.Duration = -r.Start.Unix()
		}
		return json.Marshal(w)
	case model.User:
		wid, err := deref(r.DefaultWorkspaceRemoteID, r, "default workspace")
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireUser{
			ID:              remoteOf(r.CommonData),
			Email:           r.Email,
			Fullname:        r.Fullname,
			APIToken:        r.APIToken,
			DefaultWid:      wid,
			BeginningOfWeek: r.BeginningOfWeek,
			At:              r.ModifiedAt,
		})
	default:
		return nil, fmt.Errorf("kind %q has no wire projection", rec.Kind())
	}
}

// UnmarshalRecord parses a wire payload into a remote-origin record.
// Only remote ids are populated; local foreign keys are rebuilt later
// by the reducer.
func UnmarshalRecord(kind model.Kind, data []byte) (model.Record, error) {
	switch kind {
	case model.KindWorkspace:
		var w wireWorkspace
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return workspaceFromWire(w), nil
	case model.KindClient:
		var w wireClient
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return clientFromWire(w), nil
	case model.KindProject:
		var w wireProject
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return projectFromWire(w), nil
	case model.KindTask:
		var w wireTask
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return taskFromWire(w), nil
	case model.KindTag:
		var w wireTag
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return tagFromWire(w), nil
	case model.KindTimeEntry:
		var w wireTimeEntry
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return timeEntryFromWire(w), nil
	case model.KindUser:
		var w wireUser
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return userFromWire(w), nil
	default:
		return nil, fmt.Errorf("kind %q has no wire projection", kind)
	}
}

func commonFromWire(id int64, at time.Time, deleted *time.Time) model.CommonData {
	c := model.CommonData{ModifiedAt: at, DeletedAt: deleted}
	if id != 0 {
		c.RemoteID = &id
	}
	return c
}

func workspaceFromWire(w wireWorkspace) model.Workspace {
	return model.Workspace{
		CommonData:      commonFromWire(w.ID, w.At, w.ServerDeletedAt),
		Name:            w.Name,
		Admin:           w.Admin,
		DefaultHourly:   w.DefaultHourly,
		DefaultCurrency: w.DefaultCurrency,
	}
}

func clientFromWire(w wireClient) model.Client {
	return model.Client{
		CommonData:        commonFromWire(w.ID, w.At, w.ServerDeletedAt),
		Name:              w.Name,
		WorkspaceRemoteID: &w.Wid,
	}
}

func projectFromWire(w wireProject) model.Project {
	return model.Project{
		CommonData:        commonFromWire(w.ID, w.At, w.ServerDeletedAt),
		Name:              w.Name,
		Color:             w.Color,
		Active:            w.Active,
		Billable:          w.Billable,
		WorkspaceRemoteID: &w.Wid,
		ClientRemoteID:    w.Cid,
	}
}

func taskFromWire(w wireTask) model.Task {
	return model.Task{
		CommonData:        commonFromWire(w.ID, w.At, w.ServerDeletedAt),
		Name:              w.Name,
		Active:            w.Active,
		WorkspaceRemoteID: &w.Wid,
		ProjectRemoteID:   &w.Pid,
	}
}

func tagFromWire(w wireTag) model.Tag {
	return model.Tag{
		CommonData:        commonFromWire(w.ID, w.At, w.ServerDeletedAt),
		Name:              w.Name,
		WorkspaceRemoteID: &w.Wid,
	}
}

func timeEntryFromWire(w wireTimeEntry) model.TimeEntry {
	e := model.TimeEntry{
		CommonData:        commonFromWire(w.ID, w.At, w.ServerDeletedAt),
		Description:       w.Description,
		Billable:          w.Billable,
		DurationOnly:      w.Duronly,
		Start:             w.Start,
		Stop:              w.Stop,
		WorkspaceRemoteID: &w.Wid,
		ProjectRemoteID:   w.Pid,
		TaskRemoteID:      w.Tid,
		TagNames:          w.Tags,
	}
	if w.UID != 0 {
		uid := w.UID
		e.UserRemoteID = &uid
	}
	return e
}

func userFromWire(w wireUser) model.User {
	u := model.User{
		CommonData:      commonFromWire(w.ID, w.At, nil),
		Email:           w.Email,
		Fullname:        w.Fullname,
		APIToken:        w.APIToken,
		BeginningOfWeek: w.BeginningOfWeek,
	}
	if w.DefaultWid != 0 {
		wid := w.DefaultWid
		u.DefaultWorkspaceRemoteID = &wid
	}
	return u
}
