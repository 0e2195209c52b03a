package types

// FieldPhase represents the lifecycle state of a dependent field.
type FieldPhase string

const (
	PhaseEmpty          FieldPhase = "empty"           // No choices beyond the placeholder
	PhaseLoading        FieldPhase = "loading"         // Refetch in flight, input disabled
	PhasePopulated      FieldPhase = "populated"       // Choices rendered, a value selected
	PhasePopulatedEmpty FieldPhase = "populated_empty" // Choices rendered, placeholder selected
)
