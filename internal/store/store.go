// Package store holds the live state of every field in a form instance. It is
// the single source of truth the cascade engine reads and writes; the UI and
// the persistence layer are both projections of it.
package store

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"

	"github.com/onceinteractive/cascade/internal/fieldgraph"
	"github.com/onceinteractive/cascade/pkg/types"
)

// ErrUnknownField is returned when an operation names an unregistered field.
var ErrUnknownField = errors.New("unknown field")

// Lifecycle events of a field's phase machine.
const (
	eventLoad     = "load"
	eventPopulate = "populate"
	eventDrain    = "drain"
	eventReset    = "reset"
	eventSelect   = "select"
	eventClear    = "clear"
)

// FieldState is a read-only snapshot of one field.
type FieldState struct {
	// Current is the value shown as selected in the UI, or empty.
	Current string
	// Committed is the last value the user explicitly chose or restored; it is
	// the preservation target across a refetch.
	Committed string
	// Phase is the field's lifecycle state.
	Phase types.FieldPhase
}

type fieldEntry struct {
	current   string
	committed string
	machine   *fsm.FSM
}

func newFieldEntry() *fieldEntry {
	return &fieldEntry{
		machine: fsm.NewFSM(
			string(types.PhaseEmpty),
			fsm.Events{
				{Name: eventLoad, Src: []string{string(types.PhaseEmpty), string(types.PhasePopulated), string(types.PhasePopulatedEmpty)}, Dst: string(types.PhaseLoading)},
				{Name: eventPopulate, Src: []string{string(types.PhaseLoading)}, Dst: string(types.PhasePopulated)},
				{Name: eventDrain, Src: []string{string(types.PhaseLoading)}, Dst: string(types.PhasePopulatedEmpty)},
				{Name: eventReset, Src: []string{string(types.PhaseLoading), string(types.PhasePopulated), string(types.PhasePopulatedEmpty)}, Dst: string(types.PhaseEmpty)},
				{Name: eventSelect, Src: []string{string(types.PhaseEmpty), string(types.PhasePopulatedEmpty)}, Dst: string(types.PhasePopulated)},
				{Name: eventClear, Src: []string{string(types.PhasePopulated)}, Dst: string(types.PhasePopulatedEmpty)},
			},
			fsm.Callbacks{},
		),
	}
}

func (e *fieldEntry) phase() types.FieldPhase {
	return types.FieldPhase(e.machine.Current())
}

func (e *fieldEntry) fire(event string) error {
	return e.machine.Event(context.Background(), event)
}

// Store keeps the FieldState of every field declared in a dependency graph.
// All operations are synchronous and touch nothing beyond the store itself.
type Store struct {
	mu     sync.RWMutex
	graph  *fieldgraph.Graph
	fields map[types.FieldID]*fieldEntry
}

// New creates a store with one empty entry per graph field.
func New(graph *fieldgraph.Graph) *Store {
	s := &Store{
		graph:  graph,
		fields: make(map[types.FieldID]*fieldEntry),
	}
	for _, id := range graph.TopDown() {
		s.fields[id] = newFieldEntry()
	}
	return s
}

// Get returns a snapshot of one field.
func (s *Store) Get(id types.FieldID) (FieldState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.fields[id]
	if !ok {
		return FieldState{}, false
	}
	return FieldState{
		Current:   entry.current,
		Committed: entry.committed,
		Phase:     entry.phase(),
	}, true
}

// Committed returns the committed value of one field, empty when unknown.
func (s *Store) Committed(id types.FieldID) string {
	st, _ := s.Get(id)
	return st.Committed
}

// SetCurrent updates only the displayed value of a field, leaving the
// committed value and phase alone.
func (s *Store) SetCurrent(id types.FieldID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.fields[id]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "set current %s", id)
	}
	entry.current = value
	return nil
}

// Commit records a value the user explicitly chose. Current and committed
// collapse to the same value and the phase follows the selection.
func (s *Store) Commit(id types.FieldID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.fields[id]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "commit %s", id)
	}
	entry.current = value
	entry.committed = value

	switch phase := entry.phase(); {
	case value != "" && (phase == types.PhaseEmpty || phase == types.PhasePopulatedEmpty):
		return entry.fire(eventSelect)
	case value == "" && phase == types.PhasePopulated:
		return entry.fire(eventClear)
	}
	return nil
}

// BeginLoad marks a field as loading. The committed value survives as the
// preservation target; the displayed value goes empty for the loading
// placeholder.
func (s *Store) BeginLoad(id types.FieldID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.fields[id]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "begin load %s", id)
	}
	if entry.phase() == types.PhaseLoading {
		// A superseding refetch was issued while an older one is in flight.
		return nil
	}
	entry.current = ""
	return entry.fire(eventLoad)
}

// CompleteLoad reconciles a field after its choices arrived. A non-empty
// committed value means the preservation target survived; empty means the
// field collapsed to the placeholder.
func (s *Store) CompleteLoad(id types.FieldID, committed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.fields[id]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "complete load %s", id)
	}
	entry.current = committed
	entry.committed = committed
	if committed != "" {
		return entry.fire(eventPopulate)
	}
	return entry.fire(eventDrain)
}

// Restore loads a committed value without touching descendants. Used by
// replay before the field's choices have been refetched.
func (s *Store) Restore(id types.FieldID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.fields[id]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "restore %s", id)
	}
	entry.current = value
	entry.committed = value
	if value != "" && entry.phase() == types.PhaseEmpty {
		return entry.fire(eventSelect)
	}
	return nil
}

// ResetDownstreamOf empties current and committed for every field strictly
// below the given one, without touching the field itself.
func (s *Store) ResetDownstreamOf(id types.FieldID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, descendant := range s.graph.Subtree(id) {
		entry := s.fields[descendant]
		entry.current = ""
		entry.committed = ""
		if entry.phase() != types.PhaseEmpty {
			_ = entry.fire(eventReset)
		}
	}
}

// Snapshot exports the committed value of every field, the shape mirrored by
// the persistence adapter.
func (s *Store) Snapshot() types.Selections {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(types.Selections, len(s.fields))
	for id, entry := range s.fields {
		out[id] = entry.committed
	}
	return out
}
