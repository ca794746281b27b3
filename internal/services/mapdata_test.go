package services

import (
	"strings"
	"testing"

	"maraude-bknd/internal/models"

	"github.com/google/uuid"
)

func TestStatusColor(t *testing.T) {
	cases := map[string]string{
		models.StatusPlanned:    "#3b82f6",
		models.StatusInProgress: "#f59e0b",
		models.StatusCompleted:  "#10b981",
		models.StatusCancelled:  "#ef4444",
		"bogus":                 "#6b7280",
	}
	for status, want := range cases {
		if got := StatusColor(status); got != want {
			t.Errorf("StatusColor(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestLabelsFallBackToRawCode(t *testing.T) {
	if got := StatusLabel("weird_status"); got != "weird_status" {
		t.Errorf("expected raw code fallback, got %q", got)
	}
	if got := CategoryLabel("food_truck"); got != "food_truck" {
		t.Errorf("expected raw code fallback, got %q", got)
	}
	if got := ServiceLabel("free_coffee"); got != "Café gratuit" {
		t.Errorf("expected mapped label, got %q", got)
	}
	if got := ServiceLabel("unknown_service"); got != "unknown_service" {
		t.Errorf("expected raw code fallback, got %q", got)
	}
}

func TestBuildMaraudeFeatures(t *testing.T) {
	day := 3
	action := &models.MaraudeAction{
		ID:             uuid.New(),
		Title:          "Maraude centre-ville",
		Status:         models.StatusInProgress,
		StartLatitude:  44.8378,
		StartLongitude: -0.5792,
		IsRecurring:    true,
		DayOfWeek:      &day,
		StartTime:      "19:00",
	}

	t.Run("marker only without waypoints", func(t *testing.T) {
		features := BuildMaraudeFeatures(action)
		if len(features) != 1 {
			t.Fatalf("expected 1 feature, got %d", len(features))
		}
		props := features[0].Properties
		if props["kind"] != "maraude" {
			t.Errorf("unexpected kind %v", props["kind"])
		}
		if props["pulse"] != true {
			t.Error("in_progress action should pulse")
		}
		if props["color"] != "#f59e0b" {
			t.Errorf("unexpected color %v", props["color"])
		}
	})

	t.Run("route and coverage features per segment", func(t *testing.T) {
		withRoute := *action
		withRoute.Waypoints = []*models.Waypoint{
			{ID: uuid.New(), Latitude: 44.8400, Longitude: -0.5800, Order: 0},
			{ID: uuid.New(), Latitude: 44.8425, Longitude: -0.5750, Order: 1},
		}
		features := BuildMaraudeFeatures(&withRoute)

		// marker + route line + one coverage quad per segment
		if len(features) != 4 {
			t.Fatalf("expected 4 features, got %d", len(features))
		}
		kinds := map[string]int{}
		for _, f := range features {
			kinds[f.Properties["kind"].(string)]++
		}
		if kinds["coverage"] != 2 {
			t.Errorf("expected 2 coverage polygons, got %d", kinds["coverage"])
		}
		if kinds["route"] != 1 {
			t.Errorf("expected 1 route line, got %d", kinds["route"])
		}
	})
}

func TestMaraudePopupHTML(t *testing.T) {
	day := 3
	action := &models.MaraudeAction{
		ID:                uuid.New(),
		Title:             "Maraude Saint-Michel",
		Status:            models.StatusPlanned,
		IsRecurring:       true,
		DayOfWeek:         &day,
		StartTime:         "19:00",
		ParticipantsCount: 5,
		Association:       &models.Association{Name: "Entraide Bordeaux"},
	}
	action.DayName = models.DayNames[day]

	html := MaraudePopupHTML(action)
	for _, want := range []string{"Maraude Saint-Michel", "Planifiée", "Tous les mercredis à 19:00", "5 bénévoles", "Entraide Bordeaux"} {
		if !strings.Contains(html, want) {
			t.Errorf("popup missing %q", want)
		}
	}
}

func TestMerchantPopupHTML(t *testing.T) {
	m := &models.Merchant{
		ID:         uuid.New(),
		Name:       "Boulangerie du Marché",
		Category:   models.CategoryBakery,
		Address:    "12 rue Sainte-Catherine",
		Services:   []string{"free_coffee", "restroom", "mystery_service"},
		IsVerified: true,
		IsActive:   true,
	}

	html := MerchantPopupHTML(m)
	for _, want := range []string{"Boulangerie du Marché", "Boulangerie", "Vérifié", "Café gratuit, Toilettes, mystery_service"} {
		if !strings.Contains(html, want) {
			t.Errorf("popup missing %q", want)
		}
	}
}
