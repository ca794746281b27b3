package handlers

import (
	"encoding/json"
	"net/http"

	"maraude-bknd/internal/services"
	"maraude-bknd/internal/utils"
	"maraude-bknd/internal/validate"

	"go.uber.org/zap"
)

// AssociationHandler handles HTTP requests for associations.
type AssociationHandler struct {
	service *services.AssociationService
	logr    *zap.Logger
}

func NewAssociationHandler(svc *services.AssociationService, logr *zap.Logger) *AssociationHandler {
	return &AssociationHandler{service: svc, logr: logr}
}

type associationReq struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Website     string `json:"website" validate:"omitempty,url"`
	IsActive    *bool  `json:"isActive"`
}

func (req *associationReq) toInput() services.AssociationInput {
	return services.AssociationInput{
		Name:        req.Name,
		Description: req.Description,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Website:     req.Website,
		IsActive:    req.IsActive,
	}
}

// List handles GET /associations
func (h *AssociationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := utils.ParsePagination(q, 50, 200)

	assocs, count, err := h.service.List(r.Context(), q.Get("includeInactive") == "true", limit, offset)
	if err != nil {
		h.logr.Error("failed to list associations", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    assocs,
		"count":   count,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get handles GET /associations/{id}
func (h *AssociationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid association id")
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    a,
	})
}

// Create handles POST /associations
func (h *AssociationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req associationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	a, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		h.logr.Error("failed to create association", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logr.Info("association created", zap.String("id", a.ID.String()), zap.String("name", a.Name))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    a,
	})
}

// Update handles PUT /associations/{id}
func (h *AssociationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid association id")
		return
	}

	var req associationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	a, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    a,
	})
}

// Deactivate handles DELETE /associations/{id}
func (h *AssociationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid association id")
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.logr.Info("association deactivated", zap.String("id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /associations/{id}/stats
func (h *AssociationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid association id")
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}
