package models

import "time"

// Inference sources recorded alongside each prediction.
const (
	SourceSimulation = "simulation"
	SourceLive       = "live"
	SourceAPI        = "api"
)

// PredictionRecord is one completed inference as persisted in the history
// store and returned by the history API.
type PredictionRecord struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	CPULoad          float64   `json:"cpu_load"`
	CPULoadAvg       float64   `json:"cpu_load_avg"`
	RAMUsed          float64   `json:"ram_used"`
	Temperature      float64   `json:"temperature"`
	TemperatureDelta float64   `json:"temperature_delta"`
	Probability      float64   `json:"probability"`
	Tier             RiskTier  `json:"tier"`
}

// StatusLine is the human-readable verdict shown for a tier.
func (t RiskTier) StatusLine() string {
	switch t {
	case TierCritical:
		return "CRITICAL FAILURE IMMINENT"
	case TierElevated:
		return "ELEVATED FAILURE RISK"
	default:
		return "SYSTEM NORMAL"
	}
}
