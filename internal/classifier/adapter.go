package classifier

import (
	"errors"
	"fmt"
	"math"

	"sentinel/internal/models"
)

// Tiering thresholds over the failure probability. Boundary values belong to
// the higher tier. These are a product decision layered on top of the model,
// not derived from it; changing them changes user-visible behavior.
const (
	criticalThreshold = 0.80
	elevatedThreshold = 0.50
)

// ErrModelUnavailable is returned when no classifier artifact is loaded.
// Callers render a degraded "model missing" state instead of an error page.
var ErrModelUnavailable = errors.New("classifier model unavailable")

// InferenceError wraps any failure raised inside the underlying scoring call.
// It carries the original message and never escalates to a process crash.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Scorer is the probability operation a loaded classifier exposes. *Model
// satisfies it; tests substitute fixed-probability stubs.
type Scorer interface {
	ProbabilityOfFailure(features map[string]float64) (float64, error)
}

// Adapter wraps an optional Scorer behind the predict contract the rest of
// the system uses. The zero-value adapter (no scorer) reports unavailable for
// every input and never panics.
type Adapter struct {
	scorer Scorer
}

// NewAdapter wraps scorer; pass nil when no artifact could be loaded.
func NewAdapter(scorer Scorer) *Adapter {
	return &Adapter{scorer: scorer}
}

// Available reports whether a model is loaded.
func (a *Adapter) Available() bool {
	return a != nil && a.scorer != nil
}

// Predict scores a feature record and maps the failure probability onto a
// risk tier. Returns ErrModelUnavailable when no model is loaded, or an
// *InferenceError when scoring itself fails; neither propagates as a panic.
func (a *Adapter) Predict(record models.FeatureRecord) (models.PredictionResult, error) {
	if !a.Available() {
		return models.PredictionResult{}, ErrModelUnavailable
	}

	p, err := a.score(record.Features())
	if err != nil {
		return models.PredictionResult{}, &InferenceError{Err: err}
	}

	return models.PredictionResult{
		Tier:        TierFor(p),
		Probability: p,
	}, nil
}

// score shields callers from panics inside third-party or artifact-driven
// scoring code, converting them into ordinary errors.
func (a *Adapter) score(features map[string]float64) (p float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during scoring: %v", r)
		}
	}()

	p, err = a.scorer.ProbabilityOfFailure(features)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(p) {
		return 0, fmt.Errorf("scorer returned NaN")
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("scorer returned probability %v outside [0,1]", p)
	}
	return p, nil
}

// TierFor partitions [0,1] into the three risk tiers at the 0.50/0.80
// boundaries, boundary values going to the higher tier.
func TierFor(p float64) models.RiskTier {
	switch {
	case p >= criticalThreshold:
		return models.TierCritical
	case p >= elevatedThreshold:
		return models.TierElevated
	default:
		return models.TierNormal
	}
}
