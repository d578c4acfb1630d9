package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"bondfleet/internal/reservations/repository"
	"bondfleet/internal/reservations/service"
	apperrors "bondfleet/pkg/errors"
	httputil "bondfleet/pkg/http"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"
)

type ReservationHandler struct {
	service      service.ReservationService
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewReservationHandler(
	service service.ReservationService,
	availability service.AvailabilityService,
	log *logger.Logger,
) *ReservationHandler {
	return &ReservationHandler{
		service:      service,
		availability: availability,
		log:          log,
	}
}

func (h *ReservationHandler) QueryAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	date := query.Get("date")
	if date == "" {
		httputil.WriteError(w, apperrors.InvalidInput("date query parameter is required"))
		return
	}

	partySize := 0
	if raw := query.Get("party_size"); raw != "" {
		var err error
		partySize, err = strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid party_size parameter: %s", raw)))
			return
		}
	}

	durationMin := 0
	if raw := query.Get("duration_min"); raw != "" {
		var err error
		durationMin, err = strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid duration_min parameter: %s", raw)))
			return
		}
	}

	slots, err := h.availability.Query(r.Context(), date, partySize, durationMin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]any{
		"date":  date,
		"slots": slots,
	})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var res model.Reservation
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Commit(r.Context(), &res); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, res)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, res)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := repository.ListFilter{
		Date:      query.Get("date"),
		FromDate:  query.Get("from"),
		ToDate:    query.Get("to"),
		Status:    query.Get("status"),
		VehicleID: query.Get("vehicle_id"),
	}

	reservations, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reservations, total, limit, offset)
}

func (h *ReservationHandler) Amend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ReservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	res, err := h.service.Amend(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, res)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Cancel(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.QueryAvailability)
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.List)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Amend)
	router.DELETE("/api/v1/reservations/id/:id", h.Cancel)
}
