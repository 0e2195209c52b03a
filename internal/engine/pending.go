package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/onceinteractive/cascade/internal/fetch"
	"github.com/onceinteractive/cascade/internal/fieldgraph"
	"github.com/onceinteractive/cascade/internal/store"
	"github.com/onceinteractive/cascade/pkg/types"
)

// Pending is one in-flight refetch. It captures the ordered filter tuple at
// issue time; Complete compares it against the live tuple and silently drops
// the response on mismatch. That comparison is the whole supersession story;
// no cancellation primitive exists or is needed.
type Pending struct {
	Ticket    string
	Field     types.FieldID
	Operation string
	Keys      []string
	Values    []string
	Preserve  string
}

// filters returns the wire form of the captured tuple.
func (p *Pending) filters() map[string]string {
	out := make(map[string]string, len(p.Keys))
	for i, k := range p.Keys {
		out[k] = p.Values[i]
	}
	return out
}

// liveFilters reads the current values of a field's filter sources.
func (e *Engine) liveFilters(spec fieldgraph.Spec) (keys, values []string) {
	keys = make([]string, 0, len(spec.Filters))
	values = make([]string, 0, len(spec.Filters))
	for _, f := range spec.Filters {
		keys = append(keys, f.Key)
		values = append(values, e.store.Committed(f.Source))
	}
	return keys, values
}

// Begin marks a field as loading and captures the filter tuple the refetch
// will be resolved under.
func (e *Engine) Begin(id types.FieldID, preserve string) (*Pending, error) {
	spec, ok := e.graph.Spec(id)
	if !ok {
		return nil, errors.Wrapf(store.ErrUnknownField, "begin refetch %s", id)
	}
	if !spec.Dependent() {
		return nil, errors.Errorf("begin refetch %s: root field is never refetched", id)
	}

	if err := e.store.BeginLoad(id); err != nil {
		return nil, err
	}
	e.bridge.Loading(id)

	keys, values := e.liveFilters(spec)
	return &Pending{
		Ticket:    uuid.New().String(),
		Field:     id,
		Operation: spec.Operation,
		Keys:      keys,
		Values:    values,
		Preserve:  preserve,
	}, nil
}

// Resolve fetches the choices for a pending refetch. It touches no shared
// state and may run off the event loop. An empty value anywhere in the
// captured tuple short-circuits to nil without a remote call.
func (e *Engine) Resolve(ctx context.Context, p *Pending) []types.Choice {
	filters := p.filters()
	if fetch.MissingFilter(filters) {
		return nil
	}
	return e.fetcher.Fetch(ctx, p.Operation, filters)
}

// Complete applies a resolved refetch: render the choices, reconcile the
// store against the preserve target, and notify the host only when no
// preservation was requested. Stale responses (the captured tuple no longer
// matching the live one, or the field no longer loading) are dropped without
// rendering or committing. Returns whether the response was applied.
func (e *Engine) Complete(p *Pending, choices []types.Choice) bool {
	spec, ok := e.graph.Spec(p.Field)
	if !ok {
		return false
	}

	st, _ := e.store.Get(p.Field)
	if st.Phase != types.PhaseLoading {
		e.logger.Debug("refetch superseded", "field", p.Field, "ticket", p.Ticket)
		return false
	}

	_, live := e.liveFilters(spec)
	if !equalTuple(p.Values, live) {
		e.logger.Debug("stale response dropped", "field", p.Field, "ticket", p.Ticket,
			"issued", p.Values, "live", live)
		return false
	}

	selected := e.bridge.Apply(p.Field, choices, p.Preserve)
	if err := e.store.CompleteLoad(p.Field, selected); err != nil {
		e.logger.Debug("refetch reconcile failed", "field", p.Field, "err", err)
		return false
	}
	if p.Preserve == "" {
		e.bridge.Notify(p.Field)
	}
	e.mirror()
	return true
}

func equalTuple(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
