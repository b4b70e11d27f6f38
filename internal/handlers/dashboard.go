package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dashboard renders the interactive UI shell. All live data arrives through
// the JSON API and the websocket feed; the template only seeds initial state.
func (h *Handlers) Dashboard(c *gin.Context) {
	s := h.sessionFor(c)
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"state":            s.State(),
		"modelLoaded":      h.adapter.Available(),
		"pollIntervalSec":  int(h.pollInterval / time.Second),
		"historyAvailable": h.store != nil,
	})
}
