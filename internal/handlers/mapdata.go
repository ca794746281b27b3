package handlers

import (
	"net/http"
	"strconv"

	"maraude-bknd/internal/filter"
	"maraude-bknd/internal/services"
	"maraude-bknd/internal/utils"

	"go.uber.org/zap"
)

// MapDataHandler serves the GeoJSON payload behind the map view.
type MapDataHandler struct {
	service *services.MapDataService
	geocode *services.GeocodeService
	logr    *zap.Logger
}

func NewMapDataHandler(svc *services.MapDataService, geocode *services.GeocodeService, logr *zap.Logger) *MapDataHandler {
	return &MapDataHandler{service: svc, geocode: geocode, logr: logr}
}

// Features handles GET /map/features
//
// Query params mirror the map's filter panel:
//
//	?maraudes=false       hide maraude markers
//	?merchants=false      hide merchant markers
//	?status=in_progress   maraude status filter
//	?category=bakery      merchant category filter
//	?days=1,3,5           ISO day-of-week selection
func (h *MapDataHandler) Features(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	state := filter.DefaultState()
	if q.Get("maraudes") == "false" {
		state.ShowMaraudes = false
	}
	if q.Get("merchants") == "false" {
		state.ShowMerchants = false
	}
	state.MaraudeStatus = q.Get("status")
	state.MerchantCategory = q.Get("category")
	state.SelectedDays = utils.ParseIntList(q, "days")

	fc, err := h.service.Features(r.Context(), state)
	if err != nil {
		h.logr.Error("failed to build map features", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// ReverseGeocode handles GET /geocode/reverse?lat=..&lon=..
func (h *MapDataHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat is required")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lon is required")
		return
	}

	address, err := h.geocode.Reverse(r.Context(), lat, lon)
	if err != nil {
		// lookups are best-effort; an empty address is a valid answer
		h.logr.Warn("reverse geocode failed", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"address": "",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"address": address,
	})
}
