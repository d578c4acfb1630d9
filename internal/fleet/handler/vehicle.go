package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"bondfleet/internal/fleet/service"
	httputil "bondfleet/pkg/http"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"
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

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var v model.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &v); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, v)
}

func (h *VehicleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	v, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, v)
}

func (h *VehicleHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicles, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, vehicles, total, limit, offset)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.VehicleUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "updated"})
}

func (h *VehicleHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VehicleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/vehicles", h.Create)
	router.GET("/api/v1/vehicles", h.GetAll)
	router.GET("/api/v1/vehicles/id/:id", h.GetByID)
	router.PATCH("/api/v1/vehicles/id/:id", h.Update)
	router.DELETE("/api/v1/vehicles/id/:id", h.Deactivate)
}
