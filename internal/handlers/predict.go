package handlers

import (
	"errors"
	"net/http"
	"time"

	"sentinel/internal/classifier"
	"sentinel/internal/models"

	"github.com/gin-gonic/gin"
)

// predictRequest is the alternate-backend JSON body. Every key is optional;
// absent keys take the same defaults the trained demo used. gpu_temp and
// ram_rolling_avg are never accepted from callers - they are always derived
// server-side so the feature contract cannot drift.
type predictRequest struct {
	CPUPercent    *float64 `json:"cpu_percent"`
	RAMPercent    *float64 `json:"ram_percent"`
	CPUTemp       *float64 `json:"cpu_temp"`
	CPURollingAvg *float64 `json:"cpu_rolling_avg"`
	CPUTempChange *float64 `json:"cpu_temp_change"`
}

// Input defaults matching the demo's slider rest positions.
const (
	defaultCPUPercent = 10.0
	defaultRAMPercent = 30.0
	defaultCPUTemp    = 50.0
)

// PredictPOST implements POST /predict: a stateless, sessionless scoring
// endpoint. 200 carries {status, probability(0-100, one decimal)}; a missing
// model is a 500 and any input or inference problem is a 400, both as
// {error}. The status collapses the three-tier display to the binary
// contract: anything above NORMAL reports CRITICAL.
func (h *Handlers) PredictPOST(c *gin.Context) {
	if !h.adapter.Available() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Model not loaded"})
		return
	}

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cpu := valueOr(req.CPUPercent, defaultCPUPercent)
	ram := valueOr(req.RAMPercent, defaultRAMPercent)
	temp := valueOr(req.CPUTemp, defaultCPUTemp)
	rolling := valueOr(req.CPURollingAvg, cpu)
	change := valueOr(req.CPUTempChange, 0)

	sample := models.TelemetrySample{
		CPULoad:          cpu,
		CPULoadAvg:       rolling,
		RAMUsed:          ram,
		Temperature:      temp,
		TemperatureDelta: change,
		SampledAt:        time.Now(),
	}

	result, err := h.adapter.Predict(classifier.Assemble(sample))
	if err != nil {
		if errors.Is(err, classifier.ErrModelUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Model not loaded"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.store != nil {
		rec := models.PredictionRecord{
			CreatedAt:        time.Now(),
			Source:           models.SourceAPI,
			CPULoad:          sample.CPULoad,
			CPULoadAvg:       sample.CPULoadAvg,
			RAMUsed:          sample.RAMUsed,
			Temperature:      sample.Temperature,
			TemperatureDelta: sample.TemperatureDelta,
			Probability:      result.Probability,
			Tier:             result.Tier,
		}
		if err := h.store.SavePrediction(c.Request.Context(), rec); err != nil {
			h.logf("record api prediction: %v", err)
		}
	}

	status := "CRITICAL"
	if result.Tier == models.TierNormal {
		status = "NORMAL"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"probability": result.ProbabilityPercent(),
	})
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
