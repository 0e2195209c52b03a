// Package persist mirrors committed selections across page loads. Persistence
// is a convenience, never a correctness requirement: every adapter degrades to
// a silent no-op when its medium is unavailable.
package persist

import (
	"sync"

	"github.com/onceinteractive/cascade/pkg/types"
)

// Adapter is a durable key-value mirror of the field store, namespaced per
// form instance. Load returns an empty map when nothing is stored or the
// medium is unreadable.
type Adapter interface {
	Save(formID string, selections types.Selections)
	Load(formID string) types.Selections
	Clear(formID string)
}

// MemoryAdapter keeps selections in process memory. It survives re-renders
// within one session but not a process restart.
type MemoryAdapter struct {
	mu         sync.RWMutex
	selections map[string]types.Selections
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *MemoryAdapter {
	return &MemoryAdapter{
		selections: make(map[string]types.Selections),
	}
}

// Save stores a copy of the selections under the form instance id.
func (m *MemoryAdapter) Save(formID string, selections types.Selections) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections[formID] = selections.Clone()
}

// Load returns a copy of the stored selections, empty when absent.
func (m *MemoryAdapter) Load(formID string) types.Selections {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.selections[formID]
	if !ok {
		return types.Selections{}
	}
	return stored.Clone()
}

// Clear removes the stored selections for the form instance.
func (m *MemoryAdapter) Clear(formID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.selections, formID)
}

// Discard is an adapter whose medium is permanently unavailable. It stands in
// when persistence is disabled.
type Discard struct{}

func (Discard) Save(string, types.Selections) {}

func (Discard) Load(string) types.Selections { return types.Selections{} }

func (Discard) Clear(string) {}
