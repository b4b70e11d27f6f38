package models

import (
	"math"
	"time"
)

// TelemetrySample holds one snapshot of host metrics, either read live from
// the OS or supplied verbatim by the user in simulation mode. Samples are
// ephemeral: they exist only for the duration of a single inference call.
type TelemetrySample struct {
	CPULoad          float64   `json:"cpu_load"`
	CPULoadAvg       float64   `json:"cpu_load_avg"`
	RAMUsed          float64   `json:"ram_used"`
	Temperature      float64   `json:"temperature"`
	TemperatureDelta float64   `json:"temperature_delta"`
	SampledAt        time.Time `json:"sampled_at"`
}

// Feature names the classifier was trained on. The artifact loader checks the
// model carries a coefficient for every one of these; a mismatch would not
// raise at inference time, it would silently skew predictions.
const (
	FeatureCPUPercent     = "cpu_percent"
	FeatureRAMPercent     = "ram_percent"
	FeatureCPUTemp        = "cpu_temp"
	FeatureGPUTemp        = "gpu_temp"
	FeatureNetRecvBytes   = "net_recv_bytes"
	FeatureDiskWriteBytes = "disk_write_bytes"
	FeatureCPURollingAvg  = "cpu_rolling_avg"
	FeatureRAMRollingAvg  = "ram_rolling_avg"
	FeatureCPUTempChange  = "cpu_temp_change"
)

// FeatureNames lists every field the classifier expects.
var FeatureNames = []string{
	FeatureCPUPercent,
	FeatureRAMPercent,
	FeatureCPUTemp,
	FeatureGPUTemp,
	FeatureNetRecvBytes,
	FeatureDiskWriteBytes,
	FeatureCPURollingAvg,
	FeatureRAMRollingAvg,
	FeatureCPUTempChange,
}

// FeatureRecord is the fixed 9-field input shape the trained classifier
// expects, derived deterministically from a TelemetrySample.
type FeatureRecord struct {
	CPUPercent     float64 `json:"cpu_percent"`
	RAMPercent     float64 `json:"ram_percent"`
	CPUTemp        float64 `json:"cpu_temp"`
	GPUTemp        float64 `json:"gpu_temp"`
	NetRecvBytes   float64 `json:"net_recv_bytes"`
	DiskWriteBytes float64 `json:"disk_write_bytes"`
	CPURollingAvg  float64 `json:"cpu_rolling_avg"`
	RAMRollingAvg  float64 `json:"ram_rolling_avg"`
	CPUTempChange  float64 `json:"cpu_temp_change"`
}

// Features returns the record as a name-keyed map. The model scores by field
// name rather than position, so column ordering cannot silently drift.
func (r FeatureRecord) Features() map[string]float64 {
	return map[string]float64{
		FeatureCPUPercent:     r.CPUPercent,
		FeatureRAMPercent:     r.RAMPercent,
		FeatureCPUTemp:        r.CPUTemp,
		FeatureGPUTemp:        r.GPUTemp,
		FeatureNetRecvBytes:   r.NetRecvBytes,
		FeatureDiskWriteBytes: r.DiskWriteBytes,
		FeatureCPURollingAvg:  r.CPURollingAvg,
		FeatureRAMRollingAvg:  r.RAMRollingAvg,
		FeatureCPUTempChange:  r.CPUTempChange,
	}
}

// RiskTier is the discrete label derived from the failure probability.
type RiskTier string

const (
	TierNormal   RiskTier = "NORMAL"
	TierElevated RiskTier = "ELEVATED"
	TierCritical RiskTier = "CRITICAL"
)

// PredictionResult is the classifier's verdict for one FeatureRecord.
// Stateless: not cached, not shared across sessions.
type PredictionResult struct {
	Tier        RiskTier `json:"tier"`
	Probability float64  `json:"probability"`
}

// ProbabilityPercent returns the failure probability as 0-100 rounded to one
// decimal, the shape the HTTP contract and the dashboard both use.
func (p PredictionResult) ProbabilityPercent() float64 {
	return math.Round(p.Probability*1000) / 10
}
