package handlers

import (
	"net/http"
	"time"

	"sentinel/internal/middleware"
	"sentinel/internal/models"

	"github.com/gin-gonic/gin"
)

// modeRequest selects the telemetry source for the session.
type modeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=simulation live"`
}

// analyzeRequest carries the five manual inputs. Ranges mirror the dashboard
// sliders: CPU/RAM 0-100, temperature 30-100, temperature delta -2 to 5.
type analyzeRequest struct {
	CPULoad          float64 `json:"cpu_load" validate:"gte=0,lte=100"`
	CPULoadAvg       float64 `json:"cpu_load_avg" validate:"gte=0,lte=100"`
	RAMUsed          float64 `json:"ram_used" validate:"gte=0,lte=100"`
	Temperature      float64 `json:"temperature" validate:"gte=30,lte=100"`
	TemperatureDelta float64 `json:"temperature_delta" validate:"gte=-2,lte=5"`
}

// SessionGET reports the caller's session state and whether a model is
// loaded, so the dashboard can render the degraded state up front.
func (h *Handlers) SessionGET(c *gin.Context) {
	s := h.sessionFor(c)
	c.JSON(http.StatusOK, gin.H{
		"state":             s.State(),
		"model_loaded":      h.adapter.Available(),
		"poll_interval_sec": int(h.pollInterval / time.Second),
	})
}

// SessionModePOST switches between simulation and live mode. Any switch
// deactivates a running monitor.
func (h *Handlers) SessionModePOST(c *gin.Context) {
	var req modeRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	s := h.sessionFor(c)
	state, instr, err := s.Handle(c.Request.Context(), models.Action{
		Kind: models.ActionSwitchMode,
		Mode: models.Mode(req.Mode),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "render": renderJSON(instr)})
}

// SessionStartPOST enters live running: one immediate inference, then the
// periodic monitor. The immediate result reaches the browser over the
// websocket feed.
func (h *Handlers) SessionStartPOST(c *gin.Context) {
	s := h.sessionFor(c)
	state, instr, err := s.Handle(c.Request.Context(), models.Action{Kind: models.ActionStart})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "render": renderJSON(instr)})
}

// SessionStopPOST leaves live running. No re-sample, no re-infer: the
// previously displayed values remain.
func (h *Handlers) SessionStopPOST(c *gin.Context) {
	s := h.sessionFor(c)
	state, instr, err := s.Handle(c.Request.Context(), models.Action{Kind: models.ActionStop})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "render": renderJSON(instr)})
}

// SessionAnalyzePOST runs a single simulation-mode inference on the verbatim
// slider values.
func (h *Handlers) SessionAnalyzePOST(c *gin.Context) {
	var req analyzeRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	s := h.sessionFor(c)
	sample := models.TelemetrySample{
		CPULoad:          req.CPULoad,
		CPULoadAvg:       req.CPULoadAvg,
		RAMUsed:          req.RAMUsed,
		Temperature:      req.Temperature,
		TemperatureDelta: req.TemperatureDelta,
		SampledAt:        time.Now(),
	}
	frame, err := s.AnalyzeSimulation(c.Request.Context(), sample)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, frame)
}

func renderJSON(instr models.RenderInstruction) gin.H {
	return gin.H{
		"timer_active":       instr.TimerActive,
		"run_immediately":    instr.RunImmediately,
		"show_manual_inputs": instr.ShowManualInputs,
		"preserve_outputs":   instr.PreserveOutputs,
	}
}
