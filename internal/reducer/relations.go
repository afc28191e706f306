package reducer

import (
	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/state"
)

// localID resolves a remote id to the matching local id, if any.
func localID(snap state.Snapshot, kind model.Kind, remoteID *int64) *string {
	if remoteID == nil {
		return nil
	}
	rec, ok := snap.LookupByRemoteID(kind, *remoteID)
	if !ok {
		return nil
	}
	id := rec.Meta().ID
	return &id
}

// buildLocalRelationships rewrites a remote-origin record's foreign
// keys from server ids to local ids using the snapshot's remote-id
// indices. Earlier items of the same batch must already be folded into
// the snapshot, which is why batches are ordered parent-before-child.
func buildLocalRelationships(snap state.Snapshot, rec model.Record) model.Record {
	switch r := rec.(type) {
	case model.Client:
		if id := localID(snap, model.KindWorkspace, r.WorkspaceRemoteID); id != nil {
			r.WorkspaceID = *id
		}
		return r
	case model.Tag:
		if id := localID(snap, model.KindWorkspace, r.WorkspaceRemoteID); id != nil {
			r.WorkspaceID = *id
		}
		return r
	case model.Project:
		if id := localID(snap, model.KindWorkspace, r.WorkspaceRemoteID); id != nil {
			r.WorkspaceID = *id
		}
		if id := localID(snap, model.KindClient, r.ClientRemoteID); id != nil {
			r.ClientID = id
		}
		return r
	case model.Task:
		if id := localID(snap, model.KindWorkspace, r.WorkspaceRemoteID); id != nil {
			r.WorkspaceID = *id
		}
		if id := localID(snap, model.KindProject, r.ProjectRemoteID); id != nil {
			r.ProjectID = *id
		}
		return r
	case model.TimeEntry:
		if id := localID(snap, model.KindWorkspace, r.WorkspaceRemoteID); id != nil {
			r.WorkspaceID = *id
		}
		if id := localID(snap, model.KindProject, r.ProjectRemoteID); id != nil {
			r.ProjectID = id
		}
		if id := localID(snap, model.KindTask, r.TaskRemoteID); id != nil {
			r.TaskID = id
		}
		if id := localID(snap, model.KindUser, r.UserRemoteID); id != nil {
			r.UserID = *id
		}
		return r
	case model.User:
		if id := localID(snap, model.KindWorkspace, r.DefaultWorkspaceRemoteID); id != nil {
			r.DefaultWorkspaceID = *id
		}
		return r
	case model.WorkspaceUser:
		if id := localID(snap, model.KindWorkspace, r.WorkspaceRemoteID); id != nil {
			r.WorkspaceID = *id
		}
		if id := localID(snap, model.KindUser, r.UserRemoteID); id != nil {
			r.UserID = *id
		}
		return r
	case model.ProjectUser:
		if id := localID(snap, model.KindProject, r.ProjectRemoteID); id != nil {
			r.ProjectID = *id
		}
		if id := localID(snap, model.KindUser, r.UserRemoteID); id != nil {
			r.UserID = *id
		}
		return r
	default:
		return rec
	}
}

// batchRank orders records parent-before-child for reconciliation.
func batchRank(k model.Kind) int {
	for i, kind := range model.BatchOrder {
		if kind == k {
			return i
		}
	}
	return len(model.BatchOrder)
}
