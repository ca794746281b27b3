package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"maraude-bknd/internal/config"
	"maraude-bknd/internal/logger"

	"go.uber.org/zap"
)

// GeocodeService resolves coordinates to addresses through Nominatim.
// Lookups are best-effort: callers treat a failed lookup as "no address",
// never as a blocking error for the write they are performing.
type GeocodeService struct {
	baseURL string
	client  *http.Client
	logr    *logger.Logger
}

func NewGeocodeService(cfg *config.Config, logr *logger.Logger) *GeocodeService {
	return &GeocodeService{
		baseURL: cfg.NominatimBaseURL,
		client:  &http.Client{Timeout: cfg.GeocodeTimeout},
		logr:    logr,
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
}

// Reverse returns the display address for a coordinate pair.
func (s *GeocodeService) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	u := fmt.Sprintf("%s/reverse?%s", s.baseURL, url.Values{
		"lat":    {fmt.Sprintf("%f", lat)},
		"lon":    {fmt.Sprintf("%f", lon)},
		"format": {"json"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	// Nominatim usage policy requires an identifying UA
	req.Header.Set("User-Agent", "maraude-bknd/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logr.Warn("reverse geocoding failed", zap.Error(err), zap.Float64("lat", lat), zap.Float64("lon", lon))
		return "", fmt.Errorf("reverse geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding returned status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse geocoding response: %w", err)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("no address found")
	}
	return body.DisplayName, nil
}
