package reducer

import (
	"sort"
	"time"

	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/state"
)

// Reduce is the pure transformation at the heart of the pipeline.
// It never performs I/O and never reads the wall clock; "now" always
// arrives inside the message, so applying the same message to the same
// snapshot yields the same result.
//
// A concrete message type without a case below is a deliberate no-op:
// the unchanged snapshot passes through so newer producers can talk to
// older builds.
func Reduce(snap state.Snapshot, msg Message) (Result, error) {
	switch m := msg.(type) {
	case TimeEntryContinue:
		return reduceContinue(snap, m)
	case TimeEntryStop:
		return reduceStop(snap, m)
	case TimeEntryPut:
		return reducePut(snap, m)
	case TimeEntryDelete:
		return reduceDelete(snap, m)
	case ReceivedFromSync:
		// Push feedback; in-flight pull flags are untouched.
		return reduceReceived(snap, m.Batch, func(r state.RequestInfo) state.RequestInfo {
			return r
		})
	case ReceivedFromDownload:
		return reduceReceived(snap, m.Batch, func(r state.RequestInfo) state.RequestInfo {
			r.Syncing = false
			r.Downloading = false
			return r
		})
	case Reset:
		return Result{Snapshot: state.Empty(), Wipe: true}, nil
	case UserDataPut:
		return reduceUserDataPut(snap, m)
	case SettingsPut:
		return Result{Snapshot: snap.WithSettings(snap.Settings.With(m.Opts...))}, nil
	case SyncRequested:
		req := snap.Requests
		req.Syncing = true
		return Result{
			Snapshot: snap.WithRequests(req),
			Requests: []Request{PullChanges{Since: m.Since}},
		}, nil
	case EntriesDownloadRequested:
		req := snap.Requests
		req.Downloading = true
		return Result{
			Snapshot: snap.WithRequests(req),
			Requests: []Request{PullEntries{From: m.From, Days: m.Days}},
		}, nil
	default:
		return unchanged(snap), nil
	}
}

// pushFor derives the remote operation for a locally mutated row from
// its sync metadata. Tombstones of never-synced rows need no push.
func pushFor(rec model.Record) []Request {
	meta := rec.Meta()
	if meta.IsDeleted() {
		if meta.RemoteID == nil {
			return nil
		}
		return []Request{Push{Action: PushDelete, Record: rec}}
	}
	switch meta.SyncState {
	case model.SyncCreatePending:
		return []Request{Push{Action: PushCreate, Record: rec}}
	case model.SyncUpdatePending:
		return []Request{Push{Action: PushUpdate, Record: rec}}
	default:
		return nil
	}
}

// stopRunning finishes every running entry except the excluded id.
// Normally at most one row is affected; more than one means the store
// predates the single-running invariant, and stopping them all repairs
// it.
func stopRunning(snap state.Snapshot, exclude string, now time.Time) []model.TimeEntry {
	var stopped []model.TimeEntry
	for _, e := range snap.TimeEntries {
		if e.ID == exclude || e.State() != model.EntryRunning {
			continue
		}
		t := now.UTC()
		e.Stop = &t
		e.CommonData = e.CommonData.Touch(now)
		stopped = append(stopped, e)
	}
	sort.Slice(stopped, func(i, j int) bool { return stopped[i].ID < stopped[j].ID })
	return stopped
}

func reduceContinue(snap state.Snapshot, m TimeEntryContinue) (Result, error) {
	var source model.TimeEntry
	if m.SourceID == "" {
		source = snap.Draft(m.Now)
	} else {
		e, ok := snap.TimeEntries[m.SourceID]
		if !ok {
			return unchanged(snap), model.NewInvalidOperation("continue", "entry %s not found", m.SourceID)
		}
		if e.State() != model.EntryFinished {
			return unchanged(snap), model.NewInvalidOperation("continue", "entry %s is not finished", m.SourceID)
		}
		source = e
	}

	entry := source
	entry.CommonData = model.CommonData{ID: model.NewID()}
	entry.RemoteID = nil
	entry.Start = m.Now.UTC()
	entry.Stop = nil
	entry.CommonData = entry.CommonData.Touch(m.Now)

	// Stop whatever is running inside the same batch so the
	// single-running invariant holds transactionally.
	stopped := stopRunning(snap, entry.ID, m.Now)

	res := Result{Snapshot: snap}
	for _, e := range stopped {
		res.Batch.Puts = append(res.Batch.Puts, e)
		res.Requests = append(res.Requests, pushFor(e)...)
	}
	res.Batch.Puts = append(res.Batch.Puts, entry)
	res.Requests = append(res.Requests, pushFor(entry)...)
	return res, nil
}

func reduceStop(snap state.Snapshot, m TimeEntryStop) (Result, error) {
	e, ok := snap.TimeEntries[m.ID]
	if !ok {
		return unchanged(snap), model.NewInvalidOperation("stop", "entry %s not found", m.ID)
	}
	if e.State() != model.EntryRunning {
		return unchanged(snap), model.NewInvalidOperation("stop", "entry %s is not running", m.ID)
	}
	t := m.Now.UTC()
	e.Stop = &t
	e.CommonData = e.CommonData.Touch(m.Now)

	res := Result{Snapshot: snap}
	res.Batch.Puts = append(res.Batch.Puts, e)
	res.Requests = append(res.Requests, pushFor(e)...)
	return res, nil
}

func reducePut(snap state.Snapshot, m TimeEntryPut) (Result, error) {
	entry := m.Entry
	if entry.ID == "" {
		entry.CommonData.ID = model.NewID()
	}
	entry.CommonData = entry.CommonData.Touch(m.Now)

	res := Result{Snapshot: snap}
	if entry.State() == model.EntryRunning {
		for _, e := range stopRunning(snap, entry.ID, m.Now) {
			res.Batch.Puts = append(res.Batch.Puts, e)
			res.Requests = append(res.Requests, pushFor(e)...)
		}
	}
	res.Batch.Puts = append(res.Batch.Puts, entry)
	res.Requests = append(res.Requests, pushFor(entry)...)
	return res, nil
}

func reduceDelete(snap state.Snapshot, m TimeEntryDelete) (Result, error) {
	e, ok := snap.TimeEntries[m.ID]
	if !ok {
		return unchanged(snap), model.NewInvalidOperation("delete", "entry %s not found", m.ID)
	}

	if e.RemoteID == nil {
		// Never synced: no tombstone needed, remove the row outright.
		res := Result{Snapshot: snap.Remove(model.KindTimeEntry, m.ID)}
		res.Batch.Deletes = append(res.Batch.Deletes, RowRef{Kind: model.KindTimeEntry, ID: m.ID})
		return res, nil
	}

	e.CommonData = e.CommonData.Tombstone(m.Now)
	res := Result{Snapshot: snap}
	res.Batch.Puts = append(res.Batch.Puts, e)
	res.Requests = append(res.Requests, pushFor(e)...)
	return res, nil
}

// reduceReceived reconciles a batch of remote-origin records.
//
// For each item, parent-before-child: find an existing local row by
// local id, else by remote id. If found and the incoming item wins the
// conflict order, overwrite it preserving the local id; otherwise keep
// the local row. Unmatched items get a fresh local id. Either way the
// item's foreign keys are rebuilt from remote ids, and the item is
// folded into the working snapshot immediately so later items in the
// same batch resolve against it.
func reduceReceived(snap state.Snapshot, batch []model.Record, done func(state.RequestInfo) state.RequestInfo) (Result, error) {
	ordered := make([]model.Record, len(batch))
	copy(ordered, batch)
	sort.SliceStable(ordered, func(i, j int) bool {
		return batchRank(ordered[i].Kind()) < batchRank(ordered[j].Kind())
	})

	res := Result{}
	working := snap
	for _, item := range ordered {
		meta := item.Meta()

		var existing model.Record
		var found bool
		if meta.ID != "" {
			existing, found = working.Lookup(item.Kind(), meta.ID)
		}
		if !found && meta.RemoteID != nil {
			existing, found = working.LookupByRemoteID(item.Kind(), *meta.RemoteID)
		}

		if found {
			ex := existing.Meta()
			cmp := model.Compare(meta, ex)
			// On a strict loss the local row wins. A tie folds in only
			// when the incoming copy assigns a remote id the local row
			// lacks: a create acknowledgment carries the same timestamps
			// it left with and must still take effect.
			if cmp < 0 || (cmp == 0 && (ex.RemoteID != nil || meta.RemoteID == nil)) {
				// A server-assigned id is identity, not content. Even when
				// the local edit wins, the id must land on the kept row or
				// the next push would create the record a second time.
				if meta.RemoteID != nil && ex.RemoteID == nil {
					ex.RemoteID = meta.RemoteID
					kept := existing.WithMeta(ex)
					working = working.Apply(kept)
					res.Batch.Puts = append(res.Batch.Puts, kept)
				}
				continue
			}
			meta.ID = ex.ID
		} else if meta.ID == "" {
			meta.ID = model.NewID()
		}
		meta.SyncState = model.SyncSynced
		item = item.WithMeta(meta)
		item = buildLocalRelationships(working, item)

		working = working.Apply(item)
		res.Batch.Puts = append(res.Batch.Puts, item)
	}

	working = working.WithRequests(done(working.Requests))
	res.Snapshot = working
	return res, nil
}

func reduceUserDataPut(snap state.Snapshot, m UserDataPut) (Result, error) {
	req := snap.Requests
	req.AuthResult = m.Result

	if m.Result != state.AuthSuccess || m.User == nil {
		// Failed login: clear the user and surface the outcome. This
		// is the sole authentication channel the UI consumes.
		return Result{Snapshot: snap.WithUser(nil).WithRequests(req)}, nil
	}

	user := *m.User
	if user.ID == "" {
		user.CommonData.ID = model.NewID()
	}
	user.SyncState = model.SyncSynced
	user = buildLocalRelationships(snap, user).(model.User)

	res := Result{Snapshot: snap.WithRequests(req)}
	res.Batch.Puts = append(res.Batch.Puts, user)
	return res, nil
}
