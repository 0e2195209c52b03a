package render

import (
	"sync"

	"github.com/onceinteractive/cascade/pkg/types"
)

// FakeSurface is an in-memory Surface used by tests and the example program.
// It records option writes, loading toggles and change notifications so
// scenarios can assert on exactly what the host form would have seen.
type FakeSurface struct {
	mu            sync.Mutex
	options       map[types.FieldID][]types.Choice
	selected      map[types.FieldID]string
	loading       map[types.FieldID]bool
	notifications map[types.FieldID]int
}

// NewFakeSurface creates an empty fake surface.
func NewFakeSurface() *FakeSurface {
	return &FakeSurface{
		options:       make(map[types.FieldID][]types.Choice),
		selected:      make(map[types.FieldID]string),
		loading:       make(map[types.FieldID]bool),
		notifications: make(map[types.FieldID]int),
	}
}

// SetOptions implements Surface.
func (f *FakeSurface) SetOptions(id types.FieldID, choices []types.Choice, selected string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options[id] = append([]types.Choice(nil), choices...)
	f.selected[id] = selected
}

// Value implements Surface.
func (f *FakeSurface) Value(id types.FieldID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected[id]
}

// OptionCount implements Surface.
func (f *FakeSurface) OptionCount(id types.FieldID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.options[id])
}

// SetLoading implements Surface.
func (f *FakeSurface) SetLoading(id types.FieldID, loading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading[id] = loading
}

// NotifyChanged implements Surface.
func (f *FakeSurface) NotifyChanged(id types.FieldID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[id]++
}

// SeedOptions renders an option list directly, the way the host form seeds the
// root field server-side before the controller attaches.
func (f *FakeSurface) SeedOptions(id types.FieldID, choices []types.Choice, selected string) {
	f.SetOptions(id, choices, selected)
}

// Options returns the rendered option list of a field.
func (f *FakeSurface) Options(id types.FieldID) []types.Choice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Choice(nil), f.options[id]...)
}

// Loading reports the field's loading state.
func (f *FakeSurface) Loading(id types.FieldID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading[id]
}

// Notifications returns how many change events the host saw for a field.
func (f *FakeSurface) Notifications(id types.FieldID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifications[id]
}
