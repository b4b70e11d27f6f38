package models

// Mode selects where telemetry comes from: user-controlled sliders or the
// host's own sensors on a timer.
type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModeLive       Mode = "live"
)

// Valid reports whether the mode is one of the two known values.
func (m Mode) Valid() bool {
	return m == ModeSimulation || m == ModeLive
}

// SessionState is the per-session toggle state. It lives for the duration of
// one UI session, is mutated only by explicit user actions, and is never
// shared across sessions.
type SessionState struct {
	Mode      Mode `json:"mode"`
	IsRunning bool `json:"is_running"`
}

// NewSessionState returns the initial state: simulation mode, monitor idle.
func NewSessionState() SessionState {
	return SessionState{Mode: ModeSimulation}
}

// ActionKind enumerates the user actions that can mutate session state.
type ActionKind string

const (
	ActionSwitchMode ActionKind = "switch_mode"
	ActionStart      ActionKind = "start"
	ActionStop       ActionKind = "stop"
)

// Action is one explicit user action against the session state machine.
type Action struct {
	Kind ActionKind
	Mode Mode // set for ActionSwitchMode
}

// RenderInstruction tells the presentation layer what a transition requires
// of it. It is plain data so the state machine stays testable independent of
// any UI toolkit or scheduler.
type RenderInstruction struct {
	// TimerActive is the desired state of the periodic live monitor after
	// this transition.
	TimerActive bool
	// RunImmediately requests one inference right away with freshly sampled
	// telemetry (set on entry to live running).
	RunImmediately bool
	// ShowManualInputs indicates the slider panel should be enabled.
	ShowManualInputs bool
	// PreserveOutputs means the displayed status/probability must be left
	// untouched (stop is a no-op for outputs).
	PreserveOutputs bool
}
