package harness

import (
	"github.com/roach88/securetodo/internal/projection"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step met its expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	// Errors lists failed expectations and assertions. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	// Log is the controller's action log, in dispatch order.
	Log []projection.Entry `json:"log"`

	// State is the projection after the last step.
	State projection.State `json:"state"`

	// Keys lists every persisted record key, in ascending order.
	Keys []string `json:"keys"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Log:    []projection.Entry{},
		State:  projection.NewState(),
		Keys:   []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
