// Package render writes resolved choice lists back into the host form. The
// host itself is an external collaborator reached only through the Surface
// contract.
package render

import (
	"github.com/onceinteractive/cascade/pkg/types"
)

// Surface is the minimal view of the host form substrate: per-field option
// writes, value reads, an enabled/loading toggle and a change notification
// back into the host's own listener machinery.
type Surface interface {
	// SetOptions replaces the field's option list and selects the given value.
	// The selected value is always one of the written option values.
	SetOptions(id types.FieldID, choices []types.Choice, selected string)
	// Value returns the field's currently displayed value.
	Value(id types.FieldID) string
	// OptionCount returns the number of rendered options, placeholder included.
	OptionCount(id types.FieldID) int
	// SetLoading toggles the field's disabled/loading presentation.
	SetLoading(id types.FieldID, loading bool)
	// NotifyChanged fires the host's own "value changed" event for the field.
	NotifyChanged(id types.FieldID)
}
