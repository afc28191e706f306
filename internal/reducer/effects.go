package reducer

import (
	"time"

	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/state"
)

// PushAction names the remote CRUD operation for a pushed record.
type PushAction int

const (
	PushCreate PushAction = iota + 1
	PushUpdate
	PushDelete
)

func (a PushAction) String() string {
	switch a {
	case PushCreate:
		return "create"
	case PushUpdate:
		return "update"
	case PushDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Request is a server-side effect produced by a reduce. The sync layer
// consumes these; reducers never perform I/O themselves.
type Request interface {
	isRequest()
}

// Push transmits one local CRUD mutation.
type Push struct {
	Action PushAction
	Record model.Record
}

// PullChanges asks for everything changed since the given time.
type PullChanges struct {
	Since *time.Time
}

// PullEntries asks for a window of historical time entries.
type PullEntries struct {
	From time.Time
	Days int
}

func (Push) isRequest()        {}
func (PullChanges) isRequest() {}
func (PullEntries) isRequest() {}

// RowRef identifies a row for a hard delete.
type RowRef struct {
	Kind model.Kind
	ID   string
}

// Batch is the row-store mutation a reduce wants applied atomically.
type Batch struct {
	Puts    []model.Record
	Deletes []RowRef
}

// Empty reports whether the batch carries no work.
func (b Batch) Empty() bool {
	return len(b.Puts) == 0 && len(b.Deletes) == 0
}

// Result is the outcome of one reduce: the transformed snapshot (all
// non-row fields final), the row batch still to be persisted, and the
// server requests to hand to the sync layer.
//
// The store manager applies Batch to the row store and folds the
// store's canonical write results back into Snapshot, so the in-memory
// index always matches durable storage even if the store applies
// implicit defaults.
type Result struct {
	Snapshot state.Snapshot
	Batch    Batch
	Requests []Request
	Wipe     bool
}

// Preview folds the still-unpersisted batch into the result snapshot.
// The store manager uses canonical post-write rows instead; Preview is
// for pure-function tests and read-only callers.
func (r Result) Preview() state.Snapshot {
	snap := r.Snapshot
	for _, ref := range r.Batch.Deletes {
		snap = snap.Remove(ref.Kind, ref.ID)
	}
	return snap.ApplyAll(r.Batch.Puts)
}

func unchanged(snap state.Snapshot) Result {
	return Result{Snapshot: snap}
}
