package classifier

import (
	"errors"
	"fmt"
	"testing"

	"sentinel/internal/models"
)

type fixedScorer struct {
	p   float64
	err error
}

func (f fixedScorer) ProbabilityOfFailure(map[string]float64) (float64, error) {
	return f.p, f.err
}

type panicScorer struct{}

func (panicScorer) ProbabilityOfFailure(map[string]float64) (float64, error) {
	panic("scoring blew up")
}

func TestTierForPartitionsUnitInterval(t *testing.T) {
	cases := []struct {
		p    float64
		want models.RiskTier
	}{
		{0, models.TierNormal},
		{0.1, models.TierNormal},
		{0.4999, models.TierNormal},
		{0.50, models.TierElevated}, // boundary belongs to the higher tier
		{0.65, models.TierElevated},
		{0.7999, models.TierElevated},
		{0.80, models.TierCritical}, // boundary belongs to the higher tier
		{0.92, models.TierCritical},
		{1, models.TierCritical},
	}
	for _, tc := range cases {
		if got := TierFor(tc.p); got != tc.want {
			t.Fatalf("TierFor(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestPredictWithoutModelReturnsUnavailable(t *testing.T) {
	record := Assemble(models.TelemetrySample{CPULoad: 99, RAMUsed: 99, Temperature: 99})

	for _, adapter := range []*Adapter{nil, NewAdapter(nil)} {
		_, err := adapter.Predict(record)
		if !errors.Is(err, ErrModelUnavailable) {
			t.Fatalf("err = %v, want ErrModelUnavailable", err)
		}
	}
}

func TestPredictMapsProbabilityToTier(t *testing.T) {
	adapter := NewAdapter(fixedScorer{p: 0.92})
	result, err := adapter.Predict(Assemble(models.TelemetrySample{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != models.TierCritical {
		t.Fatalf("tier = %v, want CRITICAL", result.Tier)
	}
	if result.Probability != 0.92 {
		t.Fatalf("probability = %v, want 0.92", result.Probability)
	}
	if pct := result.ProbabilityPercent(); pct != 92.0 {
		t.Fatalf("probability percent = %v, want 92.0", pct)
	}
}

func TestPredictWrapsScorerErrors(t *testing.T) {
	underlying := fmt.Errorf("bad column")
	adapter := NewAdapter(fixedScorer{err: underlying})

	_, err := adapter.Predict(Assemble(models.TelemetrySample{}))
	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("err = %T, want *InferenceError", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("inference error should wrap the original cause")
	}
}

func TestPredictRecoversScorerPanics(t *testing.T) {
	adapter := NewAdapter(panicScorer{})

	_, err := adapter.Predict(Assemble(models.TelemetrySample{}))
	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("err = %v, want *InferenceError from recovered panic", err)
	}
}

func TestPredictRejectsOutOfRangeProbability(t *testing.T) {
	adapter := NewAdapter(fixedScorer{p: 1.5})

	_, err := adapter.Predict(Assemble(models.TelemetrySample{}))
	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("err = %v, want *InferenceError for probability outside [0,1]", err)
	}
}
