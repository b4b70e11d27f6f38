package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"sentinel/internal/classifier"
	"sentinel/internal/models"
	"sentinel/internal/utils"
)

// Sampler reads one live telemetry snapshot. Never fails its caller.
type Sampler interface {
	Sample(ctx context.Context) models.TelemetrySample
}

// Predictor scores an assembled feature record.
type Predictor interface {
	Predict(record models.FeatureRecord) (models.PredictionResult, error)
	Available() bool
}

// Recorder persists completed inferences. Implementations must tolerate a nil
// receiver being skipped; the session treats recording as best effort.
type Recorder interface {
	SavePrediction(ctx context.Context, record models.PredictionRecord) error
}

// Publisher delivers a live frame to every websocket attached to a session.
type Publisher interface {
	SendToSession(sessionID string, payload []byte)
}

// Deps carries the shared collaborators every session uses. The predictor and
// sampler are read-shared and safe for concurrent use; recorder and publisher
// may be nil.
type Deps struct {
	Sampler   Sampler
	Predictor Predictor
	Recorder  Recorder
	Publisher Publisher
	Interval  time.Duration
	Logger    *utils.Logger
}

// Frame is the JSON payload pushed over the websocket after each live
// inference (and returned from simulation analyses).
type Frame struct {
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	Tier        models.RiskTier        `json:"tier,omitempty"`
	Probability float64                `json:"probability"`
	ModelLoaded bool                   `json:"model_loaded"`
	Error       string                 `json:"error,omitempty"`
	Sample      models.TelemetrySample `json:"sample"`
}

// Session owns the state machine and the optional live-monitor goroutine for
// one UI session. At most one inference is in flight per session: simulation
// analyses and live ticks both run under inferMu.
type Session struct {
	ID string

	deps Deps

	mu       sync.Mutex
	state    models.SessionState
	lastSeen time.Time
	stop     chan struct{}
	wg       sync.WaitGroup

	inferMu sync.Mutex
}

func newSession(id string, deps Deps) *Session {
	return &Session{
		ID:       id,
		deps:     deps,
		state:    models.NewSessionState(),
		lastSeen: time.Now(),
	}
}

// State returns a copy of the current session state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Touch marks the session as recently used so the registry sweeper keeps it.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Handle applies a user action, reconciles the live monitor with the
// resulting render instruction, and returns both. The immediate inference on
// start runs synchronously so the caller's response carries its result.
func (s *Session) Handle(ctx context.Context, action models.Action) (models.SessionState, models.RenderInstruction, error) {
	s.mu.Lock()
	next, instr, err := Apply(s.state, action)
	if err != nil {
		s.mu.Unlock()
		return s.state, instr, err
	}
	s.state = next
	s.lastSeen = time.Now()

	if !instr.TimerActive {
		s.stopMonitorLocked()
		s.mu.Unlock()
		s.wg.Wait()
		return next, instr, nil
	}

	started := false
	if s.stop == nil {
		s.stop = make(chan struct{})
		started = true
	}
	stop := s.stop
	s.mu.Unlock()

	if instr.RunImmediately {
		s.runLiveOnce(ctx)
	}
	if started {
		s.wg.Add(1)
		go s.monitorLoop(stop)
	}
	return next, instr, nil
}

// stopMonitorLocked cancels the periodic task. Callers hold s.mu.
func (s *Session) stopMonitorLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// monitorLoop is the scheduled periodic task for LIVE_RUNNING. It is keyed to
// the session and cancelled on any exit from the running state; the
// IsRunning consult inside Tick additionally shields against a stale timer
// firing across a transition.
func (s *Session) monitorLoop(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick(context.Background())
		case <-stop:
			return
		}
	}
}

func (s *Session) interval() time.Duration {
	if s.deps.Interval > 0 {
		return s.deps.Interval
	}
	return 2 * time.Second
}

// Tick performs one live inference if and only if the session is still in
// the running state. Ticks delivered in any other state are dropped without
// sampling, inferring, or mutating outputs.
func (s *Session) Tick(ctx context.Context) {
	st := s.State()
	if st.Mode != models.ModeLive || !st.IsRunning {
		return
	}
	s.runLiveOnce(ctx)
}

func (s *Session) runLiveOnce(ctx context.Context) {
	if s.deps.Sampler == nil {
		return
	}
	sample := s.deps.Sampler.Sample(ctx)
	frame := s.Infer(ctx, sample, models.SourceLive)
	s.publish(frame)
}

// AnalyzeSimulation runs a single inference on the user's verbatim inputs.
// Only valid in simulation mode; the metrics source is never consulted.
func (s *Session) AnalyzeSimulation(ctx context.Context, sample models.TelemetrySample) (Frame, error) {
	st := s.State()
	if st.Mode != models.ModeSimulation {
		return Frame{}, fmt.Errorf("analyze is a simulation-mode action")
	}
	s.Touch()
	return s.Infer(ctx, sample, models.SourceSimulation), nil
}

// Infer assembles, scores and records one sample, always producing a frame:
// classifier failures degrade to a labeled status rather than propagating.
func (s *Session) Infer(ctx context.Context, sample models.TelemetrySample, source string) Frame {
	s.inferMu.Lock()
	defer s.inferMu.Unlock()

	frame := Frame{
		Type:        "prediction",
		Sample:      sample,
		ModelLoaded: s.deps.Predictor != nil && s.deps.Predictor.Available(),
	}

	if s.deps.Predictor == nil {
		frame.Status = "Model Missing"
		return frame
	}

	record := classifier.Assemble(sample)
	result, err := s.deps.Predictor.Predict(record)
	switch {
	case errors.Is(err, classifier.ErrModelUnavailable):
		frame.Status = "Model Missing"
		frame.ModelLoaded = false
		return frame
	case err != nil:
		frame.Status = "Inference Error"
		frame.Error = err.Error()
		s.logf("session %s: %v", s.ID, err)
		return frame
	}

	frame.Status = result.Tier.StatusLine()
	frame.Tier = result.Tier
	frame.Probability = result.ProbabilityPercent()

	if s.deps.Recorder != nil {
		rec := models.PredictionRecord{
			CreatedAt:        time.Now(),
			Source:           source,
			CPULoad:          sample.CPULoad,
			CPULoadAvg:       sample.CPULoadAvg,
			RAMUsed:          sample.RAMUsed,
			Temperature:      sample.Temperature,
			TemperatureDelta: sample.TemperatureDelta,
			Probability:      result.Probability,
			Tier:             result.Tier,
		}
		if err := s.deps.Recorder.SavePrediction(ctx, rec); err != nil {
			s.logf("session %s: record prediction: %v", s.ID, err)
		}
	}
	return frame
}

func (s *Session) publish(frame Frame) {
	if s.deps.Publisher == nil {
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		s.logf("session %s: encode frame: %v", s.ID, err)
		return
	}
	s.deps.Publisher.SendToSession(s.ID, payload)
}

// Close stops any running monitor and waits for it to exit.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopMonitorLocked()
	s.state.IsRunning = false
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if s.deps.Logger != nil {
		s.deps.Logger.Write(msg)
		return
	}
	log.Println(msg)
}
