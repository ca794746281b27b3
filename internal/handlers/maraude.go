package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"maraude-bknd/internal/middleware"
	"maraude-bknd/internal/models"
	"maraude-bknd/internal/services"
	"maraude-bknd/internal/utils"
	"maraude-bknd/internal/validate"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaraudeHandler handles HTTP requests for maraude actions and their routes.
type MaraudeHandler struct {
	service *services.MaraudeService
	logr    *zap.Logger
}

func NewMaraudeHandler(svc *services.MaraudeService, logr *zap.Logger) *MaraudeHandler {
	return &MaraudeHandler{service: svc, logr: logr}
}

type maraudeReq struct {
	Title             string     `json:"title" validate:"required,min=3,max=200"`
	Description       string     `json:"description"`
	StartLatitude     float64    `json:"startLatitude" validate:"latitude"`
	StartLongitude    float64    `json:"startLongitude" validate:"longitude"`
	StartAddress      string     `json:"startAddress"`
	IsRecurring       bool       `json:"isRecurring"`
	DayOfWeek         *int       `json:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	ScheduledDate     *time.Time `json:"scheduledDate"`
	StartTime         string     `json:"startTime" validate:"required"`
	EndTime           string     `json:"endTime"`
	ParticipantsCount int        `json:"participantsCount" validate:"min=0"`
	Notes             string     `json:"notes"`
}

// scheduleValid enforces the recurring/one-off exclusivity: a recurring
// action carries dayOfWeek and no date, a one-off carries the opposite.
func (req *maraudeReq) scheduleValid() bool {
	if req.IsRecurring {
		return req.DayOfWeek != nil && req.ScheduledDate == nil
	}
	return req.DayOfWeek == nil && req.ScheduledDate != nil
}

func (req *maraudeReq) toInput() services.MaraudeInput {
	return services.MaraudeInput{
		Title:             req.Title,
		Description:       req.Description,
		StartLatitude:     req.StartLatitude,
		StartLongitude:    req.StartLongitude,
		StartAddress:      req.StartAddress,
		IsRecurring:       req.IsRecurring,
		DayOfWeek:         req.DayOfWeek,
		ScheduledDate:     req.ScheduledDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		ParticipantsCount: req.ParticipantsCount,
		Notes:             req.Notes,
	}
}

// List handles GET /maraudes
func (h *MaraudeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := utils.ParsePagination(q, 50, 500)

	params := services.MaraudeListParams{
		Status:       q.Get("status"),
		SelectedDays: utils.ParseIntList(q, "days"),
		ActiveOnly:   q.Get("includeInactive") != "true",
		Limit:        limit,
		Offset:       offset,
	}
	if assoc := q.Get("associationId"); assoc != "" {
		id, err := uuid.Parse(assoc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid association id")
			return
		}
		params.Association = id
	}

	actions, count, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logr.Error("failed to list maraudes", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    actions,
		"count":   count,
		"limit":   limit,
		"offset":  offset,
	})
}

// TodayActive handles GET /maraudes/today/active
func (h *MaraudeHandler) TodayActive(w http.ResponseWriter, r *http.Request) {
	actions, err := h.service.TodayActive(r.Context())
	if err != nil {
		h.logr.Error("failed to list today's maraudes", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	now := time.Now()
	today := models.ISOWeekday(now)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"data":             actions,
		"count":            len(actions),
		"date":             now.Format("2006-01-02"),
		"currentDayOfWeek": today,
		"currentDayName":   models.DayNames[today],
	})
}

// WeeklySchedule handles GET /maraudes/weekly-schedule
func (h *MaraudeHandler) WeeklySchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.WeeklySchedule(r.Context())
	if err != nil {
		h.logr.Error("failed to build weekly schedule", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    schedule,
	})
}

// Get handles GET /maraudes/{id}
func (h *MaraudeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}

	action, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    action,
	})
}

// Create handles POST /maraudes
func (h *MaraudeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req maraudeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}
	if !req.scheduleValid() {
		writeError(w, http.StatusUnprocessableEntity, "recurring actions need dayOfWeek, one-off actions need scheduledDate")
		return
	}

	callerID, err := uuid.Parse(middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid caller identity")
		return
	}
	assocID, err := uuid.Parse(middleware.AssociationID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "caller has no association")
		return
	}

	action, err := h.service.Create(r.Context(), req.toInput(), callerID, assocID)
	if err != nil {
		h.logr.Error("failed to create maraude", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logr.Info("maraude created", zap.String("id", action.ID.String()), zap.String("title", action.Title))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    action,
	})
}

// Update handles PUT /maraudes/{id}
func (h *MaraudeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}

	var req maraudeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}
	if !req.scheduleValid() {
		writeError(w, http.StatusUnprocessableEntity, "recurring actions need dayOfWeek, one-off actions need scheduledDate")
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	action, err := h.service.Update(r.Context(), id, req.toInput(), callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    action,
	})
}

// UpdateStatus handles PATCH /maraudes/{id}/status
type maraudeStatusReq struct {
	Status              string `json:"status" validate:"required,oneof=planned in_progress completed cancelled"`
	BeneficiariesHelped *int   `json:"beneficiariesHelped" validate:"omitempty,min=0"`
}

func (h *MaraudeHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}

	var req maraudeStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	action, err := h.service.UpdateStatus(r.Context(), id, req.Status, req.BeneficiariesHelped, callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logr.Info("maraude status updated", zap.String("id", id.String()), zap.String("status", req.Status))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    action,
	})
}

// Delete handles DELETE /maraudes/{id}
func (h *MaraudeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	if err := h.service.Delete(r.Context(), id, callerID, middleware.Role(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type waypointReq struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Address   string  `json:"address"`
	Name      string  `json:"name"`
}

func (req *waypointReq) toInput() services.WaypointInput {
	return services.WaypointInput{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
		Name:      req.Name,
	}
}

// AddWaypoint handles POST /maraudes/{id}/waypoints
func (h *MaraudeHandler) AddWaypoint(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}

	var req waypointReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	action, err := h.service.AddWaypoint(r.Context(), id, req.toInput(), callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    action,
	})
}

// ReplaceWaypoints handles PUT /maraudes/{id}/waypoints
func (h *MaraudeHandler) ReplaceWaypoints(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}

	var reqs []waypointReq
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	inputs := make([]services.WaypointInput, 0, len(reqs))
	for _, req := range reqs {
		if err := validate.Struct(req); err != nil {
			writeServiceError(w, err)
			return
		}
		inputs = append(inputs, req.toInput())
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	action, err := h.service.ReplaceWaypoints(r.Context(), id, inputs, callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    action,
	})
}

// RemoveWaypoint handles DELETE /maraudes/{id}/waypoints/{waypointId}
func (h *MaraudeHandler) RemoveWaypoint(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}
	wpID, err := urlUUID(r, "waypointId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid waypoint id")
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	action, err := h.service.RemoveWaypoint(r.Context(), id, wpID, callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    action,
	})
}

// MoveWaypoint handles PATCH /maraudes/{id}/waypoints/{waypointId}/move
type moveWaypointReq struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

func (h *MaraudeHandler) MoveWaypoint(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude id")
		return
	}
	wpID, err := uuid.Parse(chi.URLParam(r, "waypointId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid waypoint id")
		return
	}

	var req moveWaypointReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	action, err := h.service.MoveWaypoint(r.Context(), id, wpID, req.Direction, callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    action,
	})
}
