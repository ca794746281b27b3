package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"maraude-bknd/internal/middleware"
	"maraude-bknd/internal/services"
	"maraude-bknd/internal/utils"
	"maraude-bknd/internal/validate"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MerchantHandler handles HTTP requests for partner merchants.
type MerchantHandler struct {
	service *services.MerchantService
	logr    *zap.Logger
}

func NewMerchantHandler(svc *services.MerchantService, logr *zap.Logger) *MerchantHandler {
	return &MerchantHandler{service: svc, logr: logr}
}

type merchantReq struct {
	Name                string            `json:"name" validate:"required,min=2,max=200"`
	Description         string            `json:"description"`
	Category            string            `json:"category" validate:"required,oneof=restaurant cafe bakery pharmacy supermarket health_center laundromat clothing_store other"`
	Services            []string          `json:"services"`
	Latitude            float64           `json:"latitude" validate:"latitude"`
	Longitude           float64           `json:"longitude" validate:"longitude"`
	Address             string            `json:"address" validate:"required"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email" validate:"omitempty,email"`
	Website             string            `json:"website" validate:"omitempty,url"`
	OpeningHours        map[string]string `json:"openingHours"`
	SpecialInstructions string            `json:"specialInstructions"`
	ContactPerson       string            `json:"contactPerson"`
}

func (req *merchantReq) toInput() services.MerchantInput {
	return services.MerchantInput{
		Name:                req.Name,
		Description:         req.Description,
		Category:            req.Category,
		Services:            req.Services,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		Address:             req.Address,
		Phone:               req.Phone,
		Email:               req.Email,
		Website:             req.Website,
		OpeningHours:        req.OpeningHours,
		SpecialInstructions: req.SpecialInstructions,
		ContactPerson:       req.ContactPerson,
	}
}

// List handles GET /merchants
func (h *MerchantHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := utils.ParsePagination(q, 50, 500)

	merchants, count, err := h.service.List(r.Context(), services.MerchantListParams{
		Categories:   utils.ParseQueryList(q, "category"),
		Services:     utils.ParseQueryList(q, "service"),
		VerifiedOnly: q.Get("verified") == "true",
		ActiveOnly:   q.Get("includeInactive") != "true",
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.logr.Error("failed to list merchants", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    merchants,
		"count":   count,
		"limit":   limit,
		"offset":  offset,
	})
}

// Nearby handles GET /merchants/nearby/{lat}/{lon}?radius=
func (h *MerchantHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(chi.URLParam(r, "lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid longitude")
		return
	}
	radius := 5.0
	if v := r.URL.Query().Get("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil || radius <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive number of kilometers")
			return
		}
	}

	merchants, err := h.service.Nearby(r.Context(), lat, lon, radius)
	if err != nil {
		h.logr.Error("nearby merchant lookup failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    merchants,
		"count":   len(merchants),
	})
}

// Get handles GET /merchants/{id}
func (h *MerchantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    m,
	})
}

// Create handles POST /merchants
func (h *MerchantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req merchantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	addedBy, err := uuid.Parse(middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid caller identity")
		return
	}

	m, err := h.service.Create(r.Context(), req.toInput(), addedBy)
	if err != nil {
		h.logr.Error("failed to create merchant", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logr.Info("merchant created", zap.String("id", m.ID.String()), zap.String("name", m.Name))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    m,
	})
}

// Update handles PUT /merchants/{id}
func (h *MerchantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	var req merchantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	m, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    m,
	})
}

// SetVerified handles PATCH /merchants/{id}/verify
type verifyReq struct {
	Verified bool `json:"verified"`
}

func (h *MerchantHandler) SetVerified(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.service.SetVerified(r.Context(), id, req.Verified); err != nil {
		writeServiceError(w, err)
		return
	}

	h.logr.Info("merchant verification updated", zap.String("id", id.String()), zap.Bool("verified", req.Verified))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "verification updated",
	})
}

// Delete handles DELETE /merchants/{id}
func (h *MerchantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
