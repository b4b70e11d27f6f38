package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sentinel/internal/classifier"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/session"

	"github.com/gin-gonic/gin"
)

type captureScorer struct {
	mu       sync.Mutex
	p        float64
	features map[string]float64
}

func (c *captureScorer) ProbabilityOfFailure(features map[string]float64) (float64, error) {
	c.mu.Lock()
	c.features = features
	c.mu.Unlock()
	return c.p, nil
}

func (c *captureScorer) seen() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.features
}

type fixedSampler struct{}

func (fixedSampler) Sample(context.Context) models.TelemetrySample {
	return models.TelemetrySample{CPULoad: 20, CPULoadAvg: 20, RAMUsed: 35, Temperature: 52, SampledAt: time.Now()}
}

func newTestRouter(scorer classifier.Scorer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	adapter := classifier.NewAdapter(scorer)
	registry := session.NewRegistry(session.Deps{
		Sampler:   fixedSampler{},
		Predictor: adapter,
		Interval:  time.Hour,
	}, 0)
	h := New(registry, adapter, fixedSampler{}, nil, nil, 2*time.Second)
	sessions := middleware.NewSessionService(nil)

	r := gin.New()
	r.POST("/predict", h.PredictPOST)
	web := r.Group("/")
	web.Use(sessions.EnsureSession())
	{
		web.GET("/api/session", h.SessionGET)
		web.POST("/api/session/mode", h.SessionModePOST)
		web.POST("/api/session/start", h.SessionStartPOST)
		web.POST("/api/session/stop", h.SessionStopPOST)
		web.POST("/api/session/analyze", h.SessionAnalyzePOST)
		web.GET("/api/metrics", h.MetricsGET)
		web.GET("/api/history", h.HistoryGET)
	}
	return r
}

func postJSON(r *gin.Engine, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredictCriticalEndToEnd(t *testing.T) {
	r := newTestRouter(&captureScorer{p: 0.92})

	w := postJSON(r, "/predict", `{"cpu_percent":95,"ram_percent":90,"cpu_temp":95,"cpu_rolling_avg":90,"cpu_temp_change":3}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status      string  `json:"status"`
		Probability float64 `json:"probability"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "CRITICAL" || resp.Probability != 92.0 {
		t.Fatalf("response = %+v, want CRITICAL at 92.0", resp)
	}
}

func TestPredictAppliesDefaultsForAbsentKeys(t *testing.T) {
	scorer := &captureScorer{p: 0.10}
	r := newTestRouter(scorer)

	w := postJSON(r, "/predict", `{"cpu_percent":5}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status      string  `json:"status"`
		Probability float64 `json:"probability"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "NORMAL" || resp.Probability != 10.0 {
		t.Fatalf("response = %+v, want NORMAL at 10.0", resp)
	}

	features := scorer.seen()
	expect := map[string]float64{
		models.FeatureCPUPercent:     5,
		models.FeatureRAMPercent:     30, // default
		models.FeatureCPUTemp:        50, // default
		models.FeatureGPUTemp:        35, // derived: cpu_temp - 15
		models.FeatureNetRecvBytes:   1024,
		models.FeatureDiskWriteBytes: 0,
		models.FeatureCPURollingAvg:  5,  // defaults to cpu_percent
		models.FeatureRAMRollingAvg:  30, // derived: ram_percent
		models.FeatureCPUTempChange:  0,  // default
	}
	for name, want := range expect {
		if got := features[name]; got != want {
			t.Fatalf("feature %s = %v, want %v", name, got, want)
		}
	}
}

func TestPredictElevatedTierReportsCriticalStatus(t *testing.T) {
	r := newTestRouter(&captureScorer{p: 0.65})

	w := postJSON(r, "/predict", `{}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The binary endpoint collapses every above-normal tier to CRITICAL.
	if resp.Status != "CRITICAL" {
		t.Fatalf("status = %q, want CRITICAL for elevated probability", resp.Status)
	}
}

func TestPredictMalformedBodyIs400(t *testing.T) {
	r := newTestRouter(&captureScorer{p: 0.5})

	w := postJSON(r, "/predict", `{"cpu_percent": "lots"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["error"]; !ok {
		t.Fatalf("400 body must carry an error key, got %s", w.Body.String())
	}
}

func TestPredictWithoutModelIs500(t *testing.T) {
	r := newTestRouter(nil)

	w := postJSON(r, "/predict", `{"cpu_percent":95}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("500 body must carry an error message")
	}
}
