package session

import (
	"fmt"

	"sentinel/internal/models"
)

// Apply is the session state machine: a pure transition over
// (state, action) pairs. It decides what the new state is and what the
// presentation layer must do about it, without touching any timer or widget
// itself. Unknown or out-of-place actions return an error and leave the
// state unchanged.
func Apply(state models.SessionState, action models.Action) (models.SessionState, models.RenderInstruction, error) {
	switch action.Kind {
	case models.ActionSwitchMode:
		if !action.Mode.Valid() {
			return state, models.RenderInstruction{}, fmt.Errorf("unknown mode %q", action.Mode)
		}
		// Any mode switch deactivates the monitor; a stale timer firing
		// afterwards is additionally ignored by the tick guard.
		next := models.SessionState{Mode: action.Mode, IsRunning: false}
		return next, models.RenderInstruction{
			TimerActive:      false,
			ShowManualInputs: action.Mode == models.ModeSimulation,
		}, nil

	case models.ActionStart:
		if state.Mode != models.ModeLive {
			return state, models.RenderInstruction{}, fmt.Errorf("start requires live mode")
		}
		if state.IsRunning {
			// Already running: keep the timer, do not re-trigger the
			// immediate inference.
			return state, models.RenderInstruction{TimerActive: true, PreserveOutputs: true}, nil
		}
		next := models.SessionState{Mode: models.ModeLive, IsRunning: true}
		return next, models.RenderInstruction{
			TimerActive:    true,
			RunImmediately: true,
		}, nil

	case models.ActionStop:
		if !state.IsRunning {
			return state, models.RenderInstruction{PreserveOutputs: true}, nil
		}
		next := models.SessionState{Mode: state.Mode, IsRunning: false}
		// Stop does not re-sample or re-infer; prior displayed values remain.
		return next, models.RenderInstruction{
			TimerActive:     false,
			PreserveOutputs: true,
		}, nil

	default:
		return state, models.RenderInstruction{}, fmt.Errorf("unknown action %q", action.Kind)
	}
}
