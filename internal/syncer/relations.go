package syncer

import (
	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/state"
)

// accumulator collects records already round-tripped earlier in the
// same flush, so a child enqueued behind its parent can resolve the
// parent's freshly assigned remote id before the reducer has seen it.
type accumulator struct {
	records []model.Record
}

func (a *accumulator) add(rec model.Record) {
	a.records = append(a.records, rec)
}

func (a *accumulator) remoteID(kind model.Kind, localID string) (int64, bool) {
	for _, r := range a.records {
		meta := r.Meta()
		if r.Kind() == kind && meta.ID == localID && meta.RemoteID != nil {
			return *meta.RemoteID, true
		}
	}
	return 0, false
}

// resolveRemoteID finds the server id for a local id: the current
// flush's accumulator first, then the snapshot's per-type index. A
// miss means the parent has not round-tripped yet; the caller must
// fail that one send fast rather than transmit a dangling reference.
func resolveRemoteID(snap state.Snapshot, acc *accumulator, kind model.Kind, localID string) (int64, bool) {
	if id, ok := acc.remoteID(kind, localID); ok {
		return id, true
	}
	return snap.RemoteID(kind, localID)
}

// buildRemoteRelationships fills every foreign-key remote id on an
// outbound record before serialization. Missing parents surface as
// MissingRemoteIDError, aborting only this record's transmission.
func buildRemoteRelationships(snap state.Snapshot, acc *accumulator, rec model.Record) (model.Record, error) {
	resolve := func(kind model.Kind, localID, relation string, dst **int64) error {
		if *dst != nil || localID == "" {
			return nil
		}
		id, ok := resolveRemoteID(snap, acc, kind, localID)
		if !ok {
			return &model.MissingRemoteIDError{Kind: rec.Kind(), LocalID: rec.Meta().ID, Relation: relation}
		}
		*dst = &id
		return nil
	}

	switch r := rec.(type) {
	case model.Client:
		if err := resolve(model.KindWorkspace, r.WorkspaceID, "workspace", &r.WorkspaceRemoteID); err != nil {
			return nil, err
		}
		return r, nil
	case model.Tag:
		if err := resolve(model.KindWorkspace, r.WorkspaceID, "workspace", &r.WorkspaceRemoteID); err != nil {
			return nil, err
		}
		return r, nil
	case model.Project:
		if err := resolve(model.KindWorkspace, r.WorkspaceID, "workspace", &r.WorkspaceRemoteID); err != nil {
			return nil, err
		}
		if r.ClientID != nil {
			if err := resolve(model.KindClient, *r.ClientID, "client", &r.ClientRemoteID); err != nil {
				return nil, err
			}
		}
		return r, nil
	case model.Task:
		if err := resolve(model.KindWorkspace, r.WorkspaceID, "workspace", &r.WorkspaceRemoteID); err != nil {
			return nil, err
		}
		if err := resolve(model.KindProject, r.ProjectID, "project", &r.ProjectRemoteID); err != nil {
			return nil, err
		}
		return r, nil
	case model.TimeEntry:
		if err := resolve(model.KindWorkspace, r.WorkspaceID, "workspace", &r.WorkspaceRemoteID); err != nil {
			return nil, err
		}
		if r.ProjectID != nil {
			if err := resolve(model.KindProject, *r.ProjectID, "project", &r.ProjectRemoteID); err != nil {
				return nil, err
			}
		}
		if r.TaskID != nil {
			if err := resolve(model.KindTask, *r.TaskID, "task", &r.TaskRemoteID); err != nil {
				return nil, err
			}
		}
		if err := resolve(model.KindUser, r.UserID, "user", &r.UserRemoteID); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return rec, nil
	}
}
