package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"sentinel/internal/models"
)

// Artifact is the serialized classifier document persisted alongside the
// binary. It carries a name-keyed coefficient per trained feature, so scoring
// is insensitive to column ordering.
type Artifact struct {
	Model        string             `json:"model"`
	Version      string             `json:"version,omitempty"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// Model is an immutable, loaded classifier. Safe for concurrent use: it is
// read-only after Load.
type Model struct {
	intercept    float64
	coefficients map[string]float64
}

// Load reads and validates a classifier artifact from disk. It rejects
// artifacts that do not carry a coefficient for every expected feature name,
// since a missing column would not fail at inference time - it would just
// produce quietly wrong probabilities.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	if len(artifact.Coefficients) == 0 {
		return nil, fmt.Errorf("model artifact %s has no coefficients", path)
	}
	for _, name := range models.FeatureNames {
		if _, ok := artifact.Coefficients[name]; !ok {
			return nil, fmt.Errorf("model artifact %s missing coefficient for feature %q", path, name)
		}
	}

	coefficients := make(map[string]float64, len(artifact.Coefficients))
	for name, coef := range artifact.Coefficients {
		coefficients[name] = coef
	}

	return &Model{
		intercept:    artifact.Intercept,
		coefficients: coefficients,
	}, nil
}

// ProbabilityOfFailure returns the probability of the positive (failure)
// class for a name-keyed feature map. Every coefficient must find its
// feature; a missing feature is an error rather than a silent zero.
func (m *Model) ProbabilityOfFailure(features map[string]float64) (float64, error) {
	z := m.intercept
	for name, coef := range m.coefficients {
		value, ok := features[name]
		if !ok {
			return 0, fmt.Errorf("feature %q missing from input record", name)
		}
		z += coef * value
	}
	p := sigmoid(z)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("model produced non-finite probability")
	}
	return p, nil
}

// PredictClass returns 1 (failure) when the failure probability reaches 0.5,
// otherwise 0.
func (m *Model) PredictClass(features map[string]float64) (int, error) {
	p, err := m.ProbabilityOfFailure(features)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
