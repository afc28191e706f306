// Package syncer reconciles local mutations against the remote
// service. It observes store-manager transitions, drains the durable
// outbox while connectivity allows, pushes freshly produced mutations,
// and feeds every server response back into the pipeline as a new
// message. It never mutates the snapshot directly.
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kairos-track/kairos/internal/dispatch"
	"github.com/kairos-track/kairos/internal/model"
	"github.com/kairos-track/kairos/internal/reducer"
	"github.com/kairos-track/kairos/internal/remote"
	"github.com/kairos-track/kairos/internal/state"
	"github.com/kairos-track/kairos/internal/storage"
)

// Network is the reachability sensor.
type Network interface {
	Reachable() bool
}

// AlwaysOnline is a Network that never reports an outage.
type AlwaysOnline struct{}

func (AlwaysOnline) Reachable() bool { return true }

// Syncer drives the offline-tolerant reconciliation state machine.
type Syncer struct {
	mgr    *dispatch.Manager
	store  *storage.Store
	client remote.Client
	net    Network
	log    *slog.Logger

	// seq serializes the non-CRUD request stream: never more than one
	// outstanding pull or auth call at a time.
	seq chan struct{}
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) { s.log = log }
}

// New wires a Syncer to the pipeline and its collaborators.
func New(mgr *dispatch.Manager, store *storage.Store, client remote.Client, net Network, opts ...Option) *Syncer {
	s := &Syncer{
		mgr:    mgr,
		store:  store,
		client: client,
		net:    net,
		log:    slog.Default(),
		seq:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes transitions until the context is cancelled or the
// subscription closes. Must be started after the manager is running.
func (s *Syncer) Run(ctx context.Context) error {
	sub := s.mgr.Observe()
	s.log.Info("sync manager starting")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sync manager stopping", "reason", ctx.Err())
			return ctx.Err()
		case t, ok := <-sub:
			if !ok {
				s.log.Info("sync manager stopping: subscription closed")
				return nil
			}
			s.HandleTransition(ctx, t)
		}
	}
}

// HandleTransition runs one pass of the drain → dispatch → feedback
// protocol. Exported so tests can step the state machine without a
// running goroutine.
func (s *Syncer) HandleTransition(ctx context.Context, t dispatch.Transition) {
	acc := &accumulator{}

	drained := s.drain(ctx, t.After, acc)

	// A failed reduce dropped the message; its continuation must not
	// report success.
	firstErr := t.Err
	for _, req := range t.Requests {
		switch r := req.(type) {
		case reducer.Push:
			if err := s.handlePush(ctx, t.After, r, acc, &drained); err != nil && firstErr == nil {
				firstErr = err
			}
		case reducer.PullChanges:
			s.pullChanges(ctx, r)
		case reducer.PullEntries:
			s.pullEntries(ctx, r)
		}
	}

	// Feedback: everything the server accepted this pass re-enters the
	// pipeline so the reducer can reconcile identities.
	if len(acc.records) > 0 {
		if err := s.mgr.Send(ctx, reducer.ReceivedFromSync{Batch: acc.records}); err != nil {
			s.log.Error("dispatch sync feedback", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	t.ResolveSynced(firstErr)
}

// drain flushes the durable outbox head-first while the network is
// reachable. A single failure aborts the pass; remaining items stay
// queued for the next transition. Returns true when the queue ended
// the pass empty.
func (s *Syncer) drain(ctx context.Context, snap state.Snapshot, acc *accumulator) bool {
	if !s.net.Reachable() {
		return false
	}
	for {
		item, ok, err := s.store.Peek(ctx, storage.SyncQueue)
		if err != nil {
			s.log.Error("outbox peek", "error", err)
			return false
		}
		if !ok {
			return true
		}

		action, rec, err := decodeEnvelope(item.RawData)
		if err != nil {
			// A payload we cannot decode would wedge the queue head
			// forever; drop it and keep the queue moving.
			s.log.Error("outbox item undecodable, dropping", "id", item.ID, "error", err)
			if err := s.store.Dequeue(ctx, storage.SyncQueue, item.ID); err != nil {
				s.log.Error("outbox dequeue", "error", err)
				return false
			}
			continue
		}

		result, err := s.send(ctx, snap, acc, action, rec)
		if err != nil {
			s.log.Warn("outbox drain aborted",
				"kind", rec.Kind(),
				"id", rec.Meta().ID,
				"action", action.String(),
				"error", err,
			)
			return false
		}
		// Remove only after the server acknowledged; a crash between
		// send and dequeue re-sends rather than loses.
		if err := s.store.Dequeue(ctx, storage.SyncQueue, item.ID); err != nil {
			s.log.Error("outbox dequeue", "error", err)
			return false
		}
		if result != nil {
			acc.add(result)
		}
	}
}

// handlePush sends one CRUD mutation directly when the outbox is clean
// and the network is up; otherwise it is enqueued. Once anything in
// the batch queues, everything after it queues too, preserving the
// create-before-update-before-delete order producers relied on.
func (s *Syncer) handlePush(ctx context.Context, snap state.Snapshot, push reducer.Push, acc *accumulator, drained *bool) error {
	if !*drained || !s.net.Reachable() {
		return s.enqueue(ctx, push.Action, push.Record)
	}

	result, err := s.send(ctx, snap, acc, push.Action, push.Record)
	if err != nil {
		s.log.Warn("direct send failed, queueing",
			"kind", push.Record.Kind(),
			"id", push.Record.Meta().ID,
			"action", push.Action.String(),
			"error", err,
		)
		*drained = false
		return s.enqueue(ctx, push.Action, push.Record)
	}
	if result != nil {
		acc.add(result)
	}
	return nil
}

// send resolves remote relationships and performs one remote call. The
// returned record (nil for deletes) carries server-assigned fields
// merged onto the local identity.
func (s *Syncer) send(ctx context.Context, snap state.Snapshot, acc *accumulator, action reducer.PushAction, rec model.Record) (model.Record, error) {
	resolved, err := buildRemoteRelationships(snap, acc, rec)
	if err != nil {
		return nil, err
	}
	switch action {
	case reducer.PushCreate:
		return s.client.Create(ctx, resolved)
	case reducer.PushUpdate:
		return s.client.Update(ctx, resolved)
	case reducer.PushDelete:
		return nil, s.client.Delete(ctx, resolved)
	default:
		return nil, fmt.Errorf("unknown push action %d", action)
	}
}

func (s *Syncer) enqueue(ctx context.Context, action reducer.PushAction, rec model.Record) error {
	kind, blob, err := encodeEnvelope(action, rec)
	if err != nil {
		return err
	}
	if err := s.store.Enqueue(ctx, storage.SyncQueue, kind, blob); err != nil {
		return err
	}
	s.log.Debug("mutation queued",
		"kind", rec.Kind(),
		"id", rec.Meta().ID,
		"action", action.String(),
	)
	return nil
}

// pullChanges fetches the delta bundle on the sequenced lane and feeds
// it back as a download message.
func (s *Syncer) pullChanges(ctx context.Context, req reducer.PullChanges) {
	go s.sequenced(ctx, "changes", func() {
		bundle, err := s.client.GetChanges(ctx, req.Since)
		if err != nil {
			s.log.Warn("pull changes failed", "error", err)
			// Clear the in-flight flag; the data will come next pull.
			s.dispatch(ctx, reducer.ReceivedFromDownload{})
			return
		}
		s.dispatch(ctx, reducer.ReceivedFromDownload{
			Batch:      bundle.Records(),
			ServerTime: bundle.ServerTime,
		})
	})
}

// pullEntries fetches a window of historical entries on the sequenced
// lane.
func (s *Syncer) pullEntries(ctx context.Context, req reducer.PullEntries) {
	go s.sequenced(ctx, "entries", func() {
		entries, err := s.client.ListTimeEntries(ctx, req.From, req.Days)
		if err != nil {
			s.log.Warn("download entries failed", "error", err)
			s.dispatch(ctx, reducer.ReceivedFromDownload{})
			return
		}
		batch := make([]model.Record, 0, len(entries))
		for _, e := range entries {
			batch = append(batch, e)
		}
		s.dispatch(ctx, reducer.ReceivedFromDownload{Batch: batch})
	})
}

// sequenced runs fn while holding the single-concurrency slot, so a
// full sync and an entries download never race each other.
func (s *Syncer) sequenced(ctx context.Context, name string, fn func()) {
	select {
	case s.seq <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-s.seq }()
	s.log.Debug("sequenced request starting", "request", name)
	fn()
}

func (s *Syncer) dispatch(ctx context.Context, msg reducer.Message) {
	if err := s.mgr.Send(ctx, msg); err != nil {
		s.log.Error("dispatch message", "message", fmt.Sprintf("%T", msg), "error", err)
	}
}
