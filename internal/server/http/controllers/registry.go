package controllers

import (
	"github.com/go-chi/chi/v5"

	"github.com/rzbill/eventfeed/internal/events"
	"github.com/rzbill/eventfeed/internal/feed"
	"github.com/rzbill/eventfeed/internal/runtime"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	feed    *FeedController
}

// NewControllerRegistry creates a new controller registry. hub may be nil,
// in which case the websocket route is not mounted.
func NewControllerRegistry(rt *runtime.Runtime, svc *feed.Service, hub *events.Hub, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		feed:    NewFeedController(svc, hub, logger),
	}
}

// RegisterAllRoutes registers all controller routes under /v1.
func (r *ControllerRegistry) RegisterAllRoutes(router chi.Router) {
	router.Route("/v1", func(v1 chi.Router) {
		r.general.RegisterRoutes(v1)
		r.feed.RegisterRoutes(v1)
	})
}
