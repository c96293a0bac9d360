package pipeline

import "fmt"

// State is a step of the submission state machine.
type State int

const (
	StateCollectingInput State = iota
	StateCleaning
	StateSelecting
	StateReportOnly
	StateConfirming
	StateCancelled
	StateStaging
	StateArchiving
	StateVerifying
	StateDone
)

var stateNames = map[State]string{
	StateCollectingInput: "COLLECTING_INPUT",
	StateCleaning:        "CLEANING",
	StateSelecting:       "SELECTING",
	StateReportOnly:      "REPORT_ONLY",
	StateConfirming:      "CONFIRMING",
	StateCancelled:       "CANCELLED",
	StateStaging:         "STAGING",
	StateArchiving:       "ARCHIVING",
	StateVerifying:       "VERIFYING",
	StateDone:            "DONE",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether the state ends a run.
func IsTerminal(s State) bool {
	return s == StateDone
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateCollectingInput:
		return to == StateCleaning
	case StateCleaning:
		return to == StateSelecting
	case StateSelecting:
		return to == StateReportOnly || to == StateConfirming
	case StateReportOnly, StateCancelled, StateVerifying:
		return to == StateDone
	case StateConfirming:
		return to == StateCancelled || to == StateStaging
	case StateStaging:
		return to == StateArchiving
	case StateArchiving:
		return to == StateVerifying
	default:
		return false
	}
}

// machine tracks the current state and the path taken through it.
type machine struct {
	current State
	history []State
}

func newMachine() *machine {
	return &machine{current: StateCollectingInput, history: []State{StateCollectingInput}}
}

// transition moves to the next state or reports a disallowed move.
func (m *machine) transition(to State) error {
	if !isAllowedTransition(m.current, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

func (m *machine) path() []State {
	return append([]State(nil), m.history...)
}
