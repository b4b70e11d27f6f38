package handlers

import (
	"time"

	"sentinel/internal/classifier"
	"sentinel/internal/middleware"
	"sentinel/internal/session"
	"sentinel/internal/storage"
	"sentinel/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handlers wires the HTTP surface to the session registry, the classifier
// adapter and the supporting services. The adapter is injected, never a
// global: callers decide at startup whether a model is loaded.
type Handlers struct {
	registry     *session.Registry
	adapter      *classifier.Adapter
	source       session.Sampler
	store        storage.Store
	logger       *utils.Logger
	pollInterval time.Duration
}

func New(registry *session.Registry, adapter *classifier.Adapter, source session.Sampler, store storage.Store, logger *utils.Logger, pollInterval time.Duration) *Handlers {
	return &Handlers{
		registry:     registry,
		adapter:      adapter,
		source:       source,
		store:        store,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// sessionFor resolves the caller's session object, creating it on first use.
func (h *Handlers) sessionFor(c *gin.Context) *session.Session {
	s := h.registry.Get(middleware.SessionID(c))
	s.Touch()
	return s
}

func (h *Handlers) logf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Writef(format, args...)
	}
}
