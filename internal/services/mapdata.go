package services

import (
	"context"
	"fmt"
	"strings"

	"maraude-bknd/internal/filter"
	"maraude-bknd/internal/geo"
	"maraude-bknd/internal/models"

	"github.com/uptrace/bun"
)

// Marker colors by maraude status.
var statusColors = map[string]string{
	models.StatusPlanned:    "#3b82f6",
	models.StatusInProgress: "#f59e0b",
	models.StatusCompleted:  "#10b981",
	models.StatusCancelled:  "#ef4444",
}

const defaultStatusColor = "#6b7280"
const merchantColor = "#10b981"

// Display labels. Unknown codes fall back to the raw code string.
var statusLabels = map[string]string{
	models.StatusPlanned:    "Planifiée",
	models.StatusInProgress: "En cours",
	models.StatusCompleted:  "Terminée",
	models.StatusCancelled:  "Annulée",
}

var categoryLabels = map[string]string{
	models.CategoryRestaurant:    "Restaurant",
	models.CategoryCafe:          "Café",
	models.CategoryBakery:        "Boulangerie",
	models.CategoryPharmacy:      "Pharmacie",
	models.CategorySupermarket:   "Supermarché",
	models.CategoryHealthCenter:  "Centre de santé",
	models.CategoryLaundromat:    "Laverie",
	models.CategoryClothingStore: "Magasin de vêtements",
	models.CategoryOther:         "Autre",
}

var serviceLabels = map[string]string{
	"free_coffee":          "Café gratuit",
	"free_meal":            "Repas gratuit",
	"restroom":             "Toilettes",
	"wifi":                 "WiFi",
	"phone_charging":       "Recharge téléphone",
	"hygiene_kit":          "Kit hygiène",
	"first_aid":            "Premiers secours",
	"information":          "Information",
	"shower":               "Douche",
	"food_distribution":    "Distribution alimentaire",
	"medical_consultation": "Consultation médicale",
}

// StatusColor returns the marker color for a maraude status.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return defaultStatusColor
}

// StatusLabel returns the display label for a maraude status.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

// CategoryLabel returns the display label for a merchant category.
func CategoryLabel(category string) string {
	if l, ok := categoryLabels[category]; ok {
		return l
	}
	return category
}

// ServiceLabel returns the display label for a merchant service code.
func ServiceLabel(service string) string {
	if l, ok := serviceLabels[service]; ok {
		return l
	}
	return service
}

// MapDataService assembles the GeoJSON payload the map widget renders.
// Every call rebuilds the full feature set from current data and filters;
// there is no incremental diffing.
type MapDataService struct {
	db        *bun.DB
	maraudes  *MaraudeService
	merchants *MerchantService
}

func NewMapDataService(db *bun.DB, maraudes *MaraudeService, merchants *MerchantService) *MapDataService {
	return &MapDataService{db: db, maraudes: maraudes, merchants: merchants}
}

// Features fetches active maraudes and merchants, applies the filter state,
// and returns markers plus route buffer polygons as one FeatureCollection.
func (s *MapDataService) Features(ctx context.Context, state filter.State) (*geo.FeatureCollection, error) {
	features := make([]geo.Feature, 0, 64)

	if state.ShowMaraudes {
		actions, _, err := s.maraudes.List(ctx, MaraudeListParams{
			Status:       state.MaraudeStatus,
			SelectedDays: state.SelectedDays,
			ActiveOnly:   true,
			Limit:        500,
		})
		if err != nil {
			return nil, err
		}
		for _, a := range actions {
			features = append(features, BuildMaraudeFeatures(a)...)
		}
	}

	if state.ShowMerchants {
		merchants, _, err := s.merchants.List(ctx, MerchantListParams{ActiveOnly: true, Limit: 500})
		if err != nil {
			return nil, err
		}
		for _, m := range filter.Merchants(merchants, state) {
			features = append(features, BuildMerchantFeature(m))
		}
	}

	return geo.NewFeatureCollection(features), nil
}

// BuildMaraudeFeatures returns the marker for one maraude plus, when it has
// waypoints, its route line and one 150 m buffer polygon per segment.
func BuildMaraudeFeatures(a *models.MaraudeAction) []geo.Feature {
	start := geo.Point{Lat: a.StartLatitude, Lon: a.StartLongitude}
	color := StatusColor(a.Status)

	marker := geo.Feature{
		Type:     "Feature",
		Geometry: geo.PointGeometry(start),
		Properties: map[string]any{
			"kind":   "maraude",
			"id":     a.ID.String(),
			"title":  a.Title,
			"status": a.Status,
			"color":  color,
			// pulsing treatment for live or same-day actions
			"pulse": a.Status == models.StatusInProgress || a.IsHappeningToday,
			"popup": MaraudePopupHTML(a),
		},
	}

	features := []geo.Feature{marker}
	if len(a.Waypoints) == 0 {
		return features
	}

	points := make([]geo.Point, 0, len(a.Waypoints))
	for _, wp := range a.Waypoints {
		points = append(points, geo.Point{Lat: wp.Latitude, Lon: wp.Longitude})
	}

	path := append([]geo.Point{start}, points...)
	features = append(features, geo.Feature{
		Type:     "Feature",
		Geometry: geo.LineGeometry(path),
		Properties: map[string]any{
			"kind":  "route",
			"id":    a.ID.String(),
			"color": color,
		},
	})

	for _, quad := range geo.RouteBuffers(start, points, geo.DefaultBufferMeters) {
		features = append(features, geo.Feature{
			Type:     "Feature",
			Geometry: geo.PolygonGeometry(quad),
			Properties: map[string]any{
				"kind":  "coverage",
				"id":    a.ID.String(),
				"color": color,
			},
		})
	}
	return features
}

// BuildMerchantFeature returns the marker feature for one merchant.
func BuildMerchantFeature(m *models.Merchant) geo.Feature {
	return geo.Feature{
		Type:     "Feature",
		Geometry: geo.PointGeometry(geo.Point{Lat: m.Latitude, Lon: m.Longitude}),
		Properties: map[string]any{
			"kind":     "merchant",
			"id":       m.ID.String(),
			"name":     m.Name,
			"category": m.Category,
			"icon":     m.Category,
			"color":    merchantColor,
			"verified": m.IsVerified,
			"popup":    MerchantPopupHTML(m),
		},
	}
}

// MaraudePopupHTML builds the static popup markup for a maraude marker.
func MaraudePopupHTML(a *models.MaraudeAction) string {
	var b strings.Builder

	statusColor := StatusColor(a.Status)
	fmt.Fprintf(&b, `<div class="popup-content"><div class="popup-header"><h3>%s</h3>`, a.Title)
	fmt.Fprintf(&b, `<span class="popup-status" style="color: %s">%s</span>`, statusColor, StatusLabel(a.Status))
	if a.IsHappeningToday {
		b.WriteString(`<span class="popup-today">Aujourd'hui</span>`)
	}
	b.WriteString(`</div><div class="popup-body">`)

	if a.Description != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, a.Description)
	}
	if a.StartAddress != "" {
		fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, a.StartAddress)
	}
	fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, scheduleText(a))
	if a.EndTime != "" {
		fmt.Fprintf(&b, `<div class="popup-detail">Fin prévue: %s</div>`, a.EndTime)
	}
	fmt.Fprintf(&b, `<div class="popup-detail">%d bénévoles</div>`, a.ParticipantsCount)
	if a.BeneficiariesHelped > 0 {
		fmt.Fprintf(&b, `<div class="popup-detail">%d personnes aidées</div>`, a.BeneficiariesHelped)
	}
	if a.NextOccurrence != nil && a.IsRecurring {
		fmt.Fprintf(&b, `<div class="popup-detail">Prochaine: %s</div>`, a.NextOccurrence.Format("02/01/2006"))
	}
	if a.Association != nil {
		fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, a.Association.Name)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func scheduleText(a *models.MaraudeAction) string {
	if a.IsRecurring && a.DayOfWeek != nil {
		return fmt.Sprintf("Tous les %ss à %s", strings.ToLower(models.DayNames[*a.DayOfWeek]), a.StartTime)
	}
	if a.ScheduledDate != nil {
		return fmt.Sprintf("%s à %s", a.ScheduledDate.Format("02/01/2006"), a.StartTime)
	}
	return fmt.Sprintf("à %s", a.StartTime)
}

// MerchantPopupHTML builds the static popup markup for a merchant marker.
func MerchantPopupHTML(m *models.Merchant) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div class="popup-content"><div class="popup-header"><h3>%s</h3>`, m.Name)
	fmt.Fprintf(&b, `<span class="popup-category">%s</span>`, CategoryLabel(m.Category))
	if m.IsVerified {
		b.WriteString(`<span class="popup-verified">Vérifié</span>`)
	}
	b.WriteString(`</div><div class="popup-body">`)

	if m.Description != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, m.Description)
	}
	fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, m.Address)
	if m.Phone != "" {
		fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, m.Phone)
	}
	if len(m.Services) > 0 {
		labels := make([]string, 0, len(m.Services))
		for _, svc := range m.Services {
			labels = append(labels, ServiceLabel(svc))
		}
		fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, strings.Join(labels, ", "))
	}
	if m.ContactPerson != "" {
		fmt.Fprintf(&b, `<div class="popup-detail">%s</div>`, m.ContactPerson)
	}
	if m.SpecialInstructions != "" {
		fmt.Fprintf(&b, `<div class="popup-instructions">Instructions: %s</div>`, m.SpecialInstructions)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}
