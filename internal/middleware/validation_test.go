package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type rangedInput struct {
	Value float64 `json:"value" validate:"gte=0,lte=100"`
}

func bindRoute() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var in rangedInput
		if !BindAndValidate(c, &in) {
			return
		}
		c.JSON(http.StatusOK, in)
	})
	return r
}

func TestBindAndValidateAcceptsValidBody(t *testing.T) {
	r := bindRoute()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"value":42}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestBindAndValidateRejectsMalformedJSON(t *testing.T) {
	r := bindRoute()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"value":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: status = %d, want 400", w.Code)
	}
}

func TestBindAndValidateRejectsOutOfRangeValue(t *testing.T) {
	r := bindRoute()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"value":250}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range value: status = %d, want 400", w.Code)
	}
}
