package toygrep

import (
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle state of a pipeline run
type State string

const (
	StatePlanned    State = "planned"
	StateExtracting State = "extracting"
	StateMerging    State = "merging"
	StateReporting  State = "reporting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var nextState = map[State]State{
	StatePlanned:    StateExtracting,
	StateExtracting: StateMerging,
	StateMerging:    StateReporting,
	StateReporting:  StateDone,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether the run may move from s to to.
// Runs advance one stage at a time; any non-terminal state may fail.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}

	if to == StateFailed {
		return true
	}

	return nextState[s] == to
}

// Transition is one observed state change.
type Transition struct {
	At    time.Time `json:"at"`
	Err   error     `json:"-"`
	RunID string    `json:"run_id"`
	From  State     `json:"from"`
	To    State     `json:"to"`
}

// StateObserver is notified after each transition, from the orchestrating
// goroutine.
type StateObserver func(Transition)

type stateMachine struct {
	mu       sync.Mutex
	runID    string
	current  State
	observer StateObserver
	history  []Transition
}

func newStateMachine(runID string, observer StateObserver) *stateMachine {
	return &stateMachine{runID: runID, current: StatePlanned, observer: observer}
}

func (m *stateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

func (m *stateMachine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Transition(nil), m.history...)
}

func (m *stateMachine) advance(to State) error {
	return m.move(to, nil)
}

func (m *stateMachine) fail(cause error) {
	// failing an already terminal run is a no-op
	_ = m.move(StateFailed, cause)
}

func (m *stateMachine) move(to State, cause error) error {
	m.mu.Lock()
	from := m.current
	if !from.CanTransition(to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	t := Transition{At: time.Now(), Err: cause, RunID: m.runID, From: from, To: to}
	m.current = to
	m.history = append(m.history, t)
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(t)
	}

	return nil
}
