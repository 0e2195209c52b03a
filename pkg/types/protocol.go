package types

// LookupRequest is the wire form of one choice-lookup call.
type LookupRequest struct {
	Operation string            `json:"operation"`
	Token     string            `json:"token,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Envelope is the lookup response wrapper. Transport failures are treated
// identically to Success == false.
type Envelope struct {
	Success bool          `json:"success"`
	Data    *EnvelopeData `json:"data,omitempty"`
}

// EnvelopeData carries the resolved choices of a successful lookup.
type EnvelopeData struct {
	Choices []Choice `json:"choices"`
}

// OK wraps choices in a successful envelope.
func OK(choices []Choice) Envelope {
	if choices == nil {
		choices = []Choice{}
	}
	return Envelope{Success: true, Data: &EnvelopeData{Choices: choices}}
}

// Failed returns the failure envelope.
func Failed() Envelope {
	return Envelope{Success: false}
}
