package taskapi

import "strings"

// State is one of the provider's documented task lifecycle states.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state ends the polling loop.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ParseState normalizes a provider status string. Anything outside the four
// documented states is reported as unknown rather than mapped to a neighbor;
// contract drift must surface.
func ParseState(raw string) (State, bool) {
	switch State(strings.ToLower(strings.TrimSpace(raw))) {
	case StatePending:
		return StatePending, true
	case StateProcessing:
		return StateProcessing, true
	case StateCompleted:
		return StateCompleted, true
	case StateFailed:
		return StateFailed, true
	}
	return "", false
}
