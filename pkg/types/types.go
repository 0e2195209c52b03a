package types

// FieldID identifies one select control within a form instance.
type FieldID string

// Choice is a single selectable option as delivered by the lookup service.
type Choice struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// PlaceholderText is the label of the synthesized choice zero. The placeholder
// is always rendered first and is never a valid committed value.
const PlaceholderText = "Please Select"

// LoadingText is the label shown while a field's choices are being resolved.
const LoadingText = "Loading..."

// Placeholder returns the synthesized empty choice.
func Placeholder() Choice {
	return Choice{Value: "", Text: PlaceholderText}
}

// Selections maps field ids to committed values. It is the persisted shadow of
// the field store and the payload of a replay.
type Selections map[FieldID]string

// Clone returns a shallow copy of the selections map.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// HasValues reports whether at least one selection is non-empty.
func (s Selections) HasValues() bool {
	for _, v := range s {
		if v != "" {
			return true
		}
	}
	return false
}
