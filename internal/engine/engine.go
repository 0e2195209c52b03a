// Package engine implements the cascade state machine: which downstream
// fields a change invalidates, in what order they are refetched, which
// selection each refetch tries to preserve, and when a resolved response is
// too stale to apply.
package engine

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/onceinteractive/cascade/internal/fetch"
	"github.com/onceinteractive/cascade/internal/fieldgraph"
	"github.com/onceinteractive/cascade/internal/persist"
	"github.com/onceinteractive/cascade/internal/render"
	"github.com/onceinteractive/cascade/internal/store"
	"github.com/onceinteractive/cascade/pkg/types"
)

// Engine drives the cascade over one form instance. All entry points are
// expected to run on a single goroutine (the controller's event loop); only
// Resolve is safe to call concurrently.
type Engine struct {
	formID  string
	graph   *fieldgraph.Graph
	store   *store.Store
	fetcher fetch.Fetcher
	bridge  *render.Bridge
	persist persist.Adapter
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPersistence sets the durable mirror for committed selections.
func WithPersistence(adapter persist.Adapter) Option {
	return func(e *Engine) {
		e.persist = adapter
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine for one form instance.
func New(formID string, graph *fieldgraph.Graph, fetcher fetch.Fetcher, surface render.Surface, opts ...Option) *Engine {
	e := &Engine{
		formID:  formID,
		graph:   graph,
		store:   store.New(graph),
		fetcher: fetcher,
		bridge:  render.NewBridge(surface),
		persist: persist.Discard{},
		logger:  log.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Store exposes the field store for inspection.
func (e *Engine) Store() *store.Store {
	return e.store
}

// FormID returns the form instance this engine drives.
func (e *Engine) FormID() string {
	return e.formID
}

// OnUserChange handles a direct edit of a field: commit the value, reset the
// whole subtree below it, mirror the committed map, and begin a refetch for
// each eager target. The returned pendings must each be resolved and completed
// by the caller (synchronously via Refetch, or dispatched concurrently).
func (e *Engine) OnUserChange(id types.FieldID, value string) ([]*Pending, error) {
	if !e.graph.Has(id) {
		return nil, errors.Wrapf(store.ErrUnknownField, "user change %s", id)
	}

	before := e.store.Snapshot()
	if err := e.store.Commit(id, value); err != nil {
		return nil, err
	}

	// Descendants go empty before any refetch is issued so in-flight
	// preservation targets are empty, not stale.
	e.store.ResetDownstreamOf(id)

	targets := e.graph.RefetchTargets(id)
	eager := make(map[types.FieldID]bool, len(targets))
	for _, t := range targets {
		eager[t] = true
	}

	// Deeper descendants are not refetched; they collapse to the placeholder
	// and lie dormant until their own parent is re-selected. The host only
	// hears about the ones that actually lost a value.
	for _, descendant := range e.graph.Subtree(id) {
		if eager[descendant] {
			continue
		}
		e.bridge.Reset(descendant)
		if before[descendant] != "" {
			e.bridge.Notify(descendant)
		}
	}

	e.mirror()

	pendings := make([]*Pending, 0, len(targets))
	for _, target := range targets {
		p, err := e.Begin(target, e.store.Committed(target))
		if err != nil {
			return pendings, err
		}
		pendings = append(pendings, p)
	}
	return pendings, nil
}

// Refetch runs the full begin → resolve → complete sequence synchronously.
// It reports whether the response was applied.
func (e *Engine) Refetch(ctx context.Context, id types.FieldID, preserve string) (bool, error) {
	p, err := e.Begin(id, preserve)
	if err != nil {
		return false, err
	}
	return e.Complete(p, e.Resolve(ctx, p)), nil
}

// Replay restores a snapshot of committed values and re-runs the cascade
// top-down. A subtree is only entered when its parent's preserved value
// survived reconciliation; the root field is never refetched, its stored
// value is only trusted as the starting filter.
func (e *Engine) Replay(ctx context.Context, snapshot types.Selections) error {
	for _, id := range e.graph.TopDown() {
		if v := snapshot[id]; v != "" {
			if err := e.store.Restore(id, v); err != nil {
				return err
			}
		}
	}

	if e.store.Committed(e.graph.Root()) == "" {
		return nil
	}
	if err := e.replayChildren(ctx, e.graph.Root(), snapshot); err != nil {
		return err
	}
	e.mirror()
	return nil
}

func (e *Engine) replayChildren(ctx context.Context, id types.FieldID, snapshot types.Selections) error {
	for _, child := range e.graph.Children(id) {
		if _, err := e.Refetch(ctx, child, snapshot[child]); err != nil {
			return err
		}
		if e.store.Committed(child) != "" {
			if err := e.replayChildren(ctx, child, snapshot); err != nil {
				return err
			}
			continue
		}
		// The preserved value did not survive: any restored values below it
		// have nothing to filter by and collapse with it.
		if descendants := e.graph.Subtree(child); len(descendants) > 0 {
			before := e.store.Snapshot()
			e.store.ResetDownstreamOf(child)
			for _, d := range descendants {
				e.bridge.Reset(d)
				if before[d] != "" {
					e.bridge.Notify(d)
				}
			}
		}
	}
	return nil
}

// SubmissionSucceeded drops the persisted mirror; a fresh page load starts
// from a clean slate.
func (e *Engine) SubmissionSucceeded() {
	e.persist.Clear(e.formID)
}

// Persisted loads the stored selections for this form instance.
func (e *Engine) Persisted() types.Selections {
	return e.persist.Load(e.formID)
}

// mirror saves the committed map. Persistence degrades silently; it never
// affects the in-session cascade.
func (e *Engine) mirror() {
	e.persist.Save(e.formID, e.store.Snapshot())
}
