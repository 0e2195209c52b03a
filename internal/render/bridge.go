package render

import (
	"github.com/onceinteractive/cascade/pkg/types"
)

// Bridge applies resolved choice lists to a Surface. It owns the placeholder
// and loading presentation rules; whether to notify the host afterwards is the
// engine's decision.
type Bridge struct {
	surface Surface
}

// NewBridge wraps a Surface.
func NewBridge(surface Surface) *Bridge {
	return &Bridge{surface: surface}
}

// Apply writes the placeholder followed by the choices in the order the
// fetcher returned them, clears the loading state, and selects preserve if and
// only if it matches one of the written values. It returns the value actually
// selected (empty when the preserve target was absent).
func (b *Bridge) Apply(id types.FieldID, choices []types.Choice, preserve string) string {
	options := make([]types.Choice, 0, len(choices)+1)
	options = append(options, types.Placeholder())
	options = append(options, choices...)

	selected := ""
	if preserve != "" {
		for _, c := range choices {
			if c.Value == preserve {
				selected = preserve
				break
			}
		}
	}

	b.surface.SetLoading(id, false)
	b.surface.SetOptions(id, options, selected)
	return selected
}

// Reset renders the placeholder-only state for a field.
func (b *Bridge) Reset(id types.FieldID) {
	b.surface.SetLoading(id, false)
	b.surface.SetOptions(id, []types.Choice{types.Placeholder()}, "")
}

// Loading switches a field to its disabled single-option loading state.
func (b *Bridge) Loading(id types.FieldID) {
	b.surface.SetOptions(id, []types.Choice{{Value: "", Text: types.LoadingText}}, "")
	b.surface.SetLoading(id, true)
}

// Notify fires the host's change event for the field.
func (b *Bridge) Notify(id types.FieldID) {
	b.surface.NotifyChanged(id)
}
