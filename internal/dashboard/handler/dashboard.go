package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"drivebay/internal/dashboard/service"
	httputil "drivebay/pkg/http"
	"drivebay/pkg/logger"
	"drivebay/pkg/middleware"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
}

func NewDashboardHandler(service service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
	}
}

// Summary returns the acting owner's fleet and booking aggregate.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := middleware.ActorID(r.Context())

	summary, err := h.service.Summarize(r.Context(), actor, actor)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Summary", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "error", err)
	}
}

func (h *DashboardHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/dashboard", h.Summary)
}