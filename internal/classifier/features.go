package classifier

import "sentinel/internal/models"

// Feature derivation constants. These mirror what the classifier saw during
// training and must not be "improved" without retraining: the GPU ran about
// 15C cooler than the CPU in the training data, and network/disk activity was
// flat background noise.
const (
	gpuTempOffset       = 15.0
	netRecvBytesConst   = 1024.0
	diskWriteBytesConst = 0.0
)

// Assemble maps a telemetry sample onto the fixed 9-field record the
// classifier expects. Pure and total: every valid sample produces a record,
// no error cases.
func Assemble(sample models.TelemetrySample) models.FeatureRecord {
	return models.FeatureRecord{
		CPUPercent:     sample.CPULoad,
		RAMPercent:     sample.RAMUsed,
		CPUTemp:        sample.Temperature,
		GPUTemp:        sample.Temperature - gpuTempOffset,
		NetRecvBytes:   netRecvBytesConst,
		DiskWriteBytes: diskWriteBytesConst,
		CPURollingAvg:  sample.CPULoadAvg,
		RAMRollingAvg:  sample.RAMUsed,
		CPUTempChange:  sample.TemperatureDelta,
	}
}
