package session

import (
	"testing"

	"sentinel/internal/models"
)

func TestApplyFullToggleSequence(t *testing.T) {
	state := models.NewSessionState()
	if state.Mode != models.ModeSimulation || state.IsRunning {
		t.Fatalf("initial state = %+v, want simulation/idle", state)
	}

	// simulation -> live idle
	state, instr, err := Apply(state, models.Action{Kind: models.ActionSwitchMode, Mode: models.ModeLive})
	if err != nil {
		t.Fatalf("switch to live: %v", err)
	}
	if state.Mode != models.ModeLive || state.IsRunning {
		t.Fatalf("state after switch = %+v, want live/idle", state)
	}
	if instr.TimerActive {
		t.Fatalf("timer must be inactive after a mode switch")
	}

	// live idle -> live running
	state, instr, err = Apply(state, models.Action{Kind: models.ActionStart})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !state.IsRunning {
		t.Fatalf("state after start = %+v, want running", state)
	}
	if !instr.TimerActive || !instr.RunImmediately {
		t.Fatalf("start must activate the timer and trigger one immediate inference, got %+v", instr)
	}

	// live running -> live idle
	state, instr, err = Apply(state, models.Action{Kind: models.ActionStop})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if state.IsRunning {
		t.Fatalf("state after stop = %+v, want idle", state)
	}
	if instr.TimerActive || instr.RunImmediately {
		t.Fatalf("stop must deactivate the timer without re-inferring, got %+v", instr)
	}
	if !instr.PreserveOutputs {
		t.Fatalf("stop must leave prior displayed values untouched")
	}

	// live idle -> simulation
	state, instr, err = Apply(state, models.Action{Kind: models.ActionSwitchMode, Mode: models.ModeSimulation})
	if err != nil {
		t.Fatalf("switch to simulation: %v", err)
	}
	if state.Mode != models.ModeSimulation || state.IsRunning {
		t.Fatalf("final state = %+v, want simulation/idle", state)
	}
	if instr.TimerActive {
		t.Fatalf("timer must stay inactive after returning to simulation")
	}
	if !instr.ShowManualInputs {
		t.Fatalf("simulation mode must re-enable manual inputs")
	}
}

func TestApplySwitchAwayWhileRunningStopsTimer(t *testing.T) {
	state := models.SessionState{Mode: models.ModeLive, IsRunning: true}

	state, instr, err := Apply(state, models.Action{Kind: models.ActionSwitchMode, Mode: models.ModeSimulation})
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if state.IsRunning {
		t.Fatalf("mode switch must reset is_running")
	}
	if instr.TimerActive {
		t.Fatalf("mode switch must deactivate the timer")
	}
}

func TestApplyStartRequiresLiveMode(t *testing.T) {
	state := models.NewSessionState()
	if _, _, err := Apply(state, models.Action{Kind: models.ActionStart}); err == nil {
		t.Fatalf("start in simulation mode should be rejected")
	}
}

func TestApplyStartIsIdempotentWhileRunning(t *testing.T) {
	state := models.SessionState{Mode: models.ModeLive, IsRunning: true}

	next, instr, err := Apply(state, models.Action{Kind: models.ActionStart})
	if err != nil {
		t.Fatalf("start while running: %v", err)
	}
	if next != state {
		t.Fatalf("state changed on redundant start: %+v", next)
	}
	if instr.RunImmediately {
		t.Fatalf("redundant start must not re-trigger the immediate inference")
	}
}

func TestApplyStopWhileIdleIsNoOp(t *testing.T) {
	state := models.SessionState{Mode: models.ModeLive}

	next, instr, err := Apply(state, models.Action{Kind: models.ActionStop})
	if err != nil {
		t.Fatalf("stop while idle: %v", err)
	}
	if next != state {
		t.Fatalf("state changed on redundant stop: %+v", next)
	}
	if !instr.PreserveOutputs {
		t.Fatalf("redundant stop must preserve outputs")
	}
}

func TestApplyRejectsUnknownInput(t *testing.T) {
	state := models.NewSessionState()
	if _, _, err := Apply(state, models.Action{Kind: models.ActionSwitchMode, Mode: "turbo"}); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
	if _, _, err := Apply(state, models.Action{Kind: "reboot"}); err == nil {
		t.Fatalf("unknown action should be rejected")
	}
}
