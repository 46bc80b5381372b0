package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/eventfeed/internal/runtime"
)

// GeneralController handles endpoints that are not specific to the feed.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers /healthz.
func (c *GeneralController) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", c.handleHealth)
}

// handleHealth returns 200 with {"status": "ok"} if storage answers, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
