package projection

import (
	"cmp"
	"slices"
	"sync"
)

// Entry is one logged action.
type Entry struct {
	Seq    int64  `json:"seq"`
	Action Action `json:"action"`
}

// Replay folds entries, in seq order, over the empty state.
func Replay(entries []Entry) State {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	state := NewState()
	for _, e := range sorted {
		state = Reduce(state, e.Action)
	}
	return state
}

// Projector owns the current state and the action log. Dispatch applies
// actions one at a time.
//
// Thread-safety: all methods are safe for concurrent use; dispatches are
// serialized by an internal mutex.
type Projector struct {
	mu      sync.Mutex
	clock   *Clock
	state   State
	entries []Entry
}

// NewProjector returns a projector at the empty state.
func NewProjector() *Projector {
	return &Projector{clock: NewClock(), state: NewState()}
}

// Dispatch logs action, applies it, and returns the new state.
func (p *Projector) Dispatch(action Action) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, Entry{Seq: p.clock.Next(), Action: action})
	p.state = Reduce(p.state, action)
	return p.state.Clone()
}

// State returns a copy of the current state.
func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// Entries returns a copy of the action log.
func (p *Projector) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.entries)
}
