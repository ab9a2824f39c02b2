package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"drivebay/internal/fleet/service"
	apperrors "drivebay/pkg/errors"
	httputil "drivebay/pkg/http"
	"drivebay/pkg/logger"
	"drivebay/pkg/model"
)

type FleetHandler struct {
	service service.FleetService
	log     *logger.Logger
}

func NewFleetHandler(service service.FleetService, log *logger.Logger) *FleetHandler {
	return &FleetHandler{
		service: service,
		log:     log,
	}
}

// Search returns vehicles in a location that are free for the interval.
// Dates are date-only, interpreted as UTC day boundaries.
func (h *FleetHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Search", apperrors.InvalidInput("Invalid request body"))
		return
	}

	interval, err := parseInterval(req.PickupDate, req.ReturnDate)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	result, err := h.service.SearchAvailable(r.Context(), req.Location, interval)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "error", err)
	}
}

func parseInterval(pickup, ret string) (model.Interval, error) {
	start, err := time.Parse(time.DateOnly, pickup)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInterval("pickup_date must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, ret)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInterval("return_date must be formatted YYYY-MM-DD")
	}
	return model.Interval{Start: start, End: end}, nil
}

func (h *FleetHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *FleetHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/fleet/search", h.Search)
}