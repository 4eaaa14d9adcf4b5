package research

// State is the lifecycle position of a single run.
type State string

const (
	StateInit      State = "init"
	StatePlanning  State = "planning"
	StateSearching State = "searching"
	StateWriting   State = "writing"
	StateNotifying State = "notifying"
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Searching has no edge to StateFailed: individual searches fail in isolation
// and the stage always proceeds to writing unless the run is canceled.
var stateTransitions = map[State][]State{
	StateInit:      {StatePlanning, StateCanceled},
	StatePlanning:  {StateSearching, StateFailed, StateCanceled},
	StateSearching: {StateWriting, StateCanceled},
	StateWriting:   {StateNotifying, StateFailed, StateCanceled},
	StateNotifying: {StateDone, StateFailed, StateCanceled},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCanceled
}

func (s State) String() string { return string(s) }

// CanTransition reports whether the pipeline may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range stateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Observer receives run lifecycle notifications. Calls for one run are made
// from the goroutine ranging over Run, in order. Implementations shared by
// concurrent runs must synchronize themselves.
type Observer interface {
	StateChanged(runID string, from, to State)
	SearchSettled(runID string, outcome SearchOutcome, completed, total int)
}

type nopObserver struct{}

func (nopObserver) StateChanged(string, State, State) {}

func (nopObserver) SearchSettled(string, SearchOutcome, int, int) {}
