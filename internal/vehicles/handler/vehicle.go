package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"drivebay/internal/vehicles/service"
	apperrors "drivebay/pkg/errors"
	httputil "drivebay/pkg/http"
	"drivebay/pkg/logger"
	"drivebay/pkg/middleware"
	"drivebay/pkg/model"
)

type VehicleHandler struct {
	service service.VehicleService
	log     *logger.Logger
}

func NewVehicleHandler(service service.VehicleService, log *logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		service: service,
		log:     log,
	}
}

func (h *VehicleHandler) Add(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var vehicle model.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		h.writeError(w, "Add", apperrors.InvalidInput("Invalid request body"))
		return
	}

	added, err := h.service.Add(r.Context(), middleware.ActorID(r.Context()), &vehicle)
	if err != nil {
		h.writeError(w, "Add", err)
		return
	}

	if err := httputil.WriteCreated(w, added); err != nil {
		h.log.Error("failed to write created response", "handler", "Add", "error", err)
	}
}

func (h *VehicleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vehicle, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, vehicle); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// ListMine returns the acting owner's live fleet.
func (h *VehicleHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := middleware.ActorID(r.Context())

	vehicles, err := h.service.ListByOwner(r.Context(), actor, actor)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WriteSuccess(w, vehicles); err != nil {
		h.log.Error("failed to write success response", "handler", "ListMine", "error", err)
	}
}

type listingRequest struct {
	Listed bool `json:"listed"`
}

func (h *VehicleHandler) SetListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "SetListing", apperrors.InvalidInput("Invalid request body"))
		return
	}

	vehicle, err := h.service.ToggleListing(r.Context(), middleware.ActorID(r.Context()), ps.ByName("id"), req.Listed)
	if err != nil {
		h.writeError(w, "SetListing", err)
		return
	}

	if err := httputil.WriteSuccess(w, vehicle); err != nil {
		h.log.Error("failed to write success response", "handler", "SetListing", "error", err)
	}
}

func (h *VehicleHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Remove(r.Context(), middleware.ActorID(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VehicleHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *VehicleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/vehicles", h.Add)
	router.GET("/api/v1/vehicles/me", h.ListMine)
	router.GET("/api/v1/vehicles/id/:id", h.GetByID)
	router.PATCH("/api/v1/vehicles/id/:id/listing", h.SetListing)
	router.DELETE("/api/v1/vehicles/id/:id", h.Remove)
}