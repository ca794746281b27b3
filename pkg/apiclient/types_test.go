package apiclient

import (
	"encoding/json"
	"testing"

	"maraude-bknd/internal/models"
)

// The client must decode exactly the field names the server serializes. The
// route estimate pair is the trap: its JSON names carry no unit suffix while
// the Go field names do.
func TestMaraudeDecodesServerFieldNames(t *testing.T) {
	day := 3
	action := models.MaraudeAction{
		Title:                "Maraude Centre-ville",
		Status:               models.StatusPlanned,
		IsRecurring:          true,
		DayOfWeek:            &day,
		StartTime:            "19:00",
		ParticipantsCount:    4,
		EstimatedDistanceKm:  0.26,
		EstimatedDurationMin: 3,
	}
	raw, err := json.Marshal(&action)
	if err != nil {
		t.Fatalf("marshal server model: %v", err)
	}

	var m Maraude
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal into client type: %v", err)
	}

	if m.EstimatedDistanceKm != 0.26 {
		t.Errorf("EstimatedDistanceKm = %v, want 0.26", m.EstimatedDistanceKm)
	}
	if m.EstimatedDurationMin != 3 {
		t.Errorf("EstimatedDurationMin = %d, want 3", m.EstimatedDurationMin)
	}
	if m.Title != action.Title {
		t.Errorf("Title = %q, want %q", m.Title, action.Title)
	}
	if m.DayOfWeek == nil || *m.DayOfWeek != day {
		t.Errorf("DayOfWeek = %v, want %d", m.DayOfWeek, day)
	}
}

func TestMaraudeWireNames(t *testing.T) {
	raw, err := json.Marshal(Maraude{EstimatedDistanceKm: 1.5, EstimatedDurationMin: 18})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"estimatedDistance", "estimatedDuration"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("missing wire field %q", name)
		}
	}
}
