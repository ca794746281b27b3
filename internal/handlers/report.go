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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportHandler handles HTTP requests for maraude reports.
type ReportHandler struct {
	service *services.ReportService
	logr    *zap.Logger
}

func NewReportHandler(svc *services.ReportService, logr *zap.Logger) *ReportHandler {
	return &ReportHandler{service: svc, logr: logr}
}

type reportReq struct {
	MaraudeActionID         string                `json:"maraudeActionId" validate:"required,uuid"`
	ReportDate              time.Time             `json:"reportDate" validate:"required"`
	StartTime               string                `json:"startTime" validate:"required"`
	EndTime                 string                `json:"endTime"`
	BeneficiariesCount      int                   `json:"beneficiariesCount" validate:"min=0"`
	VolunteersCount         int                   `json:"volunteersCount" validate:"min=0"`
	GeneralNotes            string                `json:"generalNotes"`
	DifficultiesEncountered string                `json:"difficultiesEncountered"`
	PositivePoints          string                `json:"positivePoints"`
	UrgentSituationsDetails string                `json:"urgentSituationsDetails"`
	Distributions           []models.Distribution `json:"distributions" validate:"dive"`
	Alerts                  []models.Alert        `json:"alerts" validate:"dive"`
}

func (req *reportReq) toInput() (services.ReportInput, error) {
	actionID, err := uuid.Parse(req.MaraudeActionID)
	if err != nil {
		return services.ReportInput{}, err
	}
	return services.ReportInput{
		MaraudeActionID:         actionID,
		ReportDate:              req.ReportDate,
		StartTime:               req.StartTime,
		EndTime:                 req.EndTime,
		BeneficiariesCount:      req.BeneficiariesCount,
		VolunteersCount:         req.VolunteersCount,
		GeneralNotes:            req.GeneralNotes,
		DifficultiesEncountered: req.DifficultiesEncountered,
		PositivePoints:          req.PositivePoints,
		UrgentSituationsDetails: req.UrgentSituationsDetails,
		Distributions:           req.Distributions,
		Alerts:                  req.Alerts,
	}, nil
}

func parseReportListParams(r *http.Request) (services.ReportListParams, error) {
	q := r.URL.Query()
	limit, offset := utils.ParsePagination(q, 50, 500)

	params := services.ReportListParams{
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if v := q.Get("maraudeActionId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return params, err
		}
		params.MaraudeActionID = id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return params, err
		}
		params.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return params, err
		}
		params.To = &t
	}
	return params, nil
}

// List handles GET /reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseReportListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter parameters")
		return
	}

	reports, count, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logr.Error("failed to list reports", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    reports,
		"count":   count,
		"limit":   params.Limit,
		"offset":  params.Offset,
	})
}

// Get handles GET /reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}

// CheckDuplicate handles GET /reports/check-duplicate?maraudeActionId=..&date=YYYY-MM-DD
// Lets the client warn before the user fills a full form destined to be
// rejected on submit.
func (h *ReportHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	actionID, err := uuid.Parse(q.Get("maraudeActionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "maraudeActionId is required")
		return
	}
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	existing, err := h.service.FindDuplicate(r.Context(), actionID, date)
	if err != nil {
		h.logr.Error("duplicate check failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{
		"success":   true,
		"duplicate": existing != nil,
	}
	if existing != nil {
		resp["existingReportId"] = existing.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude action id")
		return
	}

	createdBy, err := uuid.Parse(middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid caller identity")
		return
	}

	report, err := h.service.Create(r.Context(), in, createdBy)
	if err != nil {
		h.logr.Warn("failed to create report", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logr.Info("report created", zap.String("id", report.ID.String()), zap.String("action", report.MaraudeActionID.String()))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    report,
	})
}

// Update handles PUT /reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	var req reportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maraude action id")
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	report, err := h.service.Update(r.Context(), id, in, callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}

// Submit handles PATCH /reports/{id}/submit
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	report, err := h.service.Submit(r.Context(), id, callerID, middleware.Role(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logr.Info("report submitted", zap.String("id", id.String()))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}

// Validate handles PATCH /reports/{id}/validate
func (h *ReportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := h.service.Validate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logr.Info("report validated", zap.String("id", id.String()))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}

type sendReportEmailReq struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
}

// SendEmail handles POST /reports/{id}/send-email
func (h *ReportHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	var req sendReportEmailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	msg, err := h.service.SendEmail(r.Context(), id, callerID, services.ReportEmailInput{
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Message:    req.Message,
	})
	if err != nil {
		h.logr.Error("failed to send report email", zap.String("id", id.String()), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logr.Info("report emailed", zap.String("id", id.String()), zap.Int("recipients", len(req.Recipients)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msg,
	})
}

// Delete handles DELETE /reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	callerID, _ := uuid.Parse(middleware.UserID(r.Context()))
	if err := h.service.Delete(r.Context(), id, callerID, middleware.Role(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DistributionTypes handles GET /reports/distribution-types
func (h *ReportHandler) DistributionTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.DistributionTypes(r.Context())
	if err != nil {
		h.logr.Error("failed to fetch distribution types", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    types,
		"count":   len(types),
	})
}

// Stats handles GET /reports/stats/summary
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	params, err := parseReportListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter parameters")
		return
	}

	stats, err := h.service.Stats(r.Context(), params)
	if err != nil {
		h.logr.Error("failed to aggregate report stats", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}
