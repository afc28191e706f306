// Package dispatch is the single-writer execution engine of the
// pipeline. One worker goroutine consumes messages strictly FIFO,
// applies the pure reducer against the current published snapshot,
// persists the resulting row batch, swaps in the new snapshot, and
// broadcasts the transition to observers.
//
// CRITICAL: all state mutation happens in the Run loop goroutine. That
// single-writer discipline is what makes the reducer's pure-function
// assumption safe without locks around the snapshot itself.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kairos-track/kairos/internal/reducer"
	"github.com/kairos-track/kairos/internal/settings"
	"github.com/kairos-track/kairos/internal/state"
	"github.com/kairos-track/kairos/internal/storage"
)

// QueueCapacity bounds the number of in-flight messages. Senders that
// exceed it block until the worker drains; admission control favors
// memory bounds over dropping messages.
const QueueCapacity = 100

// Transition is one published state change. Before and After are both
// immutable snapshots; observers may hold them indefinitely.
type Transition struct {
	Before   state.Snapshot
	After    state.Snapshot
	Requests []reducer.Request

	// Err is set when the reduce (or its persistence) failed and the
	// prior state was republished unchanged. The message is dropped,
	// never retried.
	Err error

	// synced is the post-network continuation attached by the sender,
	// if any. The sync layer resolves it once every server request of
	// this transition has been acknowledged or queued.
	synced func(error)
}

// ResolveSynced fires the post-network continuation, if one exists.
// Called by the sync layer; safe to call when absent.
func (t Transition) ResolveSynced(err error) {
	if t.synced != nil {
		t.synced(err)
	}
}

type sendOptions struct {
	applied func(Transition)
	synced  func(error)
}

// SendOption attaches a continuation to a dispatched message. The two
// observation points are distinct types on purpose: a caller cannot
// accidentally wait on the wrong one.
type SendOption func(*sendOptions)

// WhenApplied fires after the reducer ran and the new snapshot is
// published, before any network traffic. Fire-and-forget: the
// continuation runs on its own goroutine and cannot stall the writer.
func WhenApplied(f func(Transition)) SendOption {
	return func(o *sendOptions) { o.applied = f }
}

// WhenSynced fires after the sync layer has acknowledged (or durably
// queued) every push produced by the message. Pull requests complete
// asynchronously and re-enter the pipeline as their own messages, so
// they are outside this observation point.
func WhenSynced(f func(error)) SendOption {
	return func(o *sendOptions) { o.synced = f }
}

type envelope struct {
	msg  reducer.Message
	opts sendOptions
}

// Manager is the single-writer store manager.
type Manager struct {
	store  *storage.Store
	keeper settings.Keeper
	log    *slog.Logger

	queue chan envelope

	mu      sync.RWMutex
	current state.Snapshot
	subs    []chan Transition
	closed  bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithSettingsKeeper wires the persistence target for settings state.
// Every transition that changes settings serializes them as JSON.
func WithSettingsKeeper(k settings.Keeper) Option {
	return func(m *Manager) { m.keeper = k }
}

// New creates a Manager publishing initial as its first snapshot.
func New(store *storage.Store, initial state.Snapshot, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		log:     slog.Default(),
		queue:   make(chan envelope, QueueCapacity),
		current: initial,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the latest published snapshot. Safe from any
// goroutine; the snapshot itself is immutable.
func (m *Manager) Current() state.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Send submits a message for processing. Blocks while the bounded
// queue is full; returns the context error if the caller gives up
// first.
func (m *Manager) Send(ctx context.Context, msg reducer.Message, opts ...SendOption) error {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}
	select {
	case m.queue <- envelope{msg: msg, opts: o}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendWait submits a message and blocks until it has been applied,
// returning the transition it produced.
func (m *Manager) SendWait(ctx context.Context, msg reducer.Message, opts ...SendOption) (Transition, error) {
	done := make(chan Transition, 1)
	opts = append(opts, WhenApplied(func(t Transition) { done <- t }))
	if err := m.Send(ctx, msg, opts...); err != nil {
		return Transition{}, err
	}
	select {
	case t := <-done:
		return t, t.Err
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}
}

// Observe subscribes to state transitions. The returned channel is
// buffered; a subscriber that stops reading eventually blocks the
// writer (backpressure, same policy as the send queue).
func (m *Manager) Observe() <-chan Transition {
	ch := make(chan Transition, QueueCapacity)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		// The writer already shut down; a channel that will never be
		// closed would block the subscriber forever.
		close(ch)
		return ch
	}
	m.subs = append(m.subs, ch)
	return ch
}

// Run starts the writer loop. Must be called from exactly one
// goroutine; blocks until the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info("store manager starting")
	for {
		select {
		case <-ctx.Done():
			m.log.Info("store manager stopping", "reason", ctx.Err())
			m.closeSubs()
			return ctx.Err()
		case env := <-m.queue:
			m.process(ctx, env)
		}
	}
}

func (m *Manager) closeSubs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, ch := range m.subs {
		close(ch)
	}
}

// process applies one message end to end. Called only from the Run
// goroutine.
func (m *Manager) process(ctx context.Context, env envelope) {
	before := m.Current()

	next, requests, err := m.apply(ctx, before, env.msg)
	if err != nil {
		// Log and continue: the writer loop must stay alive. The prior
		// state is republished unchanged and the message is dropped.
		m.log.Error("reduce failed, message dropped",
			"message", fmt.Sprintf("%T", env.msg),
			"error", err,
		)
		t := Transition{Before: before, After: before, Err: err, synced: env.opts.synced}
		m.finish(ctx, t, env.opts)
		return
	}

	next.Version = before.Version + 1
	m.persistSettings(before, next)

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	m.log.Debug("message applied",
		"message", fmt.Sprintf("%T", env.msg),
		"version", next.Version,
		"requests", len(requests),
	)

	t := Transition{Before: before, After: next, Requests: requests, synced: env.opts.synced}
	m.finish(ctx, t, env.opts)
}

func (m *Manager) apply(ctx context.Context, before state.Snapshot, msg reducer.Message) (state.Snapshot, []reducer.Request, error) {
	res, err := reducer.Reduce(before, msg)
	if err != nil {
		return state.Snapshot{}, nil, err
	}

	if res.Wipe {
		if err := m.store.WipeTables(ctx); err != nil {
			return state.Snapshot{}, nil, fmt.Errorf("wipe tables: %w", err)
		}
	}

	next := res.Snapshot
	if !res.Batch.Empty() {
		deletes := make([]storage.RowDelete, 0, len(res.Batch.Deletes))
		for _, d := range res.Batch.Deletes {
			deletes = append(deletes, storage.RowDelete{Kind: d.Kind, ID: d.ID})
		}
		// Fold the store's canonical write results, not the intended
		// puts, so the in-memory index matches durable rows exactly.
		canonical, err := m.store.Update(ctx, res.Batch.Puts, deletes)
		if err != nil {
			return state.Snapshot{}, nil, fmt.Errorf("persist batch: %w", err)
		}
		next = next.ApplyAll(canonical)
	}
	return next, res.Requests, nil
}

func (m *Manager) persistSettings(before, after state.Snapshot) {
	if m.keeper == nil || before.Settings == after.Settings {
		return
	}
	blob, err := json.Marshal(after.Settings)
	if err != nil {
		m.log.Error("serialize settings", "error", err)
		return
	}
	if err := m.keeper.Store(blob); err != nil {
		m.log.Error("persist settings", "error", err)
	}
}

func (m *Manager) finish(ctx context.Context, t Transition, opts sendOptions) {
	if opts.applied != nil {
		go opts.applied(t)
	}
	m.publish(ctx, t)
}

func (m *Manager) publish(ctx context.Context, t Transition) {
	m.mu.RLock()
	subs := m.subs
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- t:
		case <-ctx.Done():
			return
		}
	}
}
