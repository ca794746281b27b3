package services

import (
	"strings"
	"testing"
	"time"

	"maraude-bknd/internal/models"

	"github.com/google/uuid"
)

func TestCanSendReportEmail(t *testing.T) {
	author := uuid.New()
	report := &models.MaraudeReport{CreatedBy: author}

	tests := []struct {
		name   string
		caller models.User
		want   bool
	}{
		{"author volunteer", models.User{ID: author, Role: models.RoleVolunteer}, true},
		{"other volunteer", models.User{ID: uuid.New(), Role: models.RoleVolunteer}, false},
		{"other coordinator", models.User{ID: uuid.New(), Role: models.RoleCoordinator}, true},
		{"other admin", models.User{ID: uuid.New(), Role: models.RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canSendReportEmail(report, &tt.caller); got != tt.want {
				t.Errorf("canSendReportEmail = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportEmailSubject(t *testing.T) {
	r := &models.MaraudeReport{
		ReportDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		MaraudeAction: &models.MaraudeAction{Title: "Maraude Centre-ville"},
	}
	got := reportEmailSubject(r)
	want := "Rapport de maraude du 15/01/2026 - Maraude Centre-ville"
	if got != want {
		t.Errorf("subject = %q, want %q", got, want)
	}

	r.MaraudeAction = nil
	if got := reportEmailSubject(r); got != "Rapport de maraude du 15/01/2026" {
		t.Errorf("subject without action = %q", got)
	}
}

func TestReportEmailBodyFlagsUrgentSituations(t *testing.T) {
	sender := &models.User{FirstName: "Marie", LastName: "Dupont"}
	r := &models.MaraudeReport{
		ReportDate:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		BeneficiariesCount: 12,
		VolunteersCount:    4,
		Alerts: []models.Alert{
			{AlertType: "medical", Severity: "critical", SituationDescription: "personne inconsciente"},
		},
		UrgentSituationsDetails: "SAMU appelé sur place",
	}

	body := reportEmailBody(r, sender, "Bonjour,")
	for _, want := range []string{
		"Bonjour,",
		"Bénéficiaires rencontrés : 12",
		"Bénévoles présents : 4",
		"Alertes signalées : 1",
		"situations urgentes",
		"SAMU appelé sur place",
		"Envoyé par Marie Dupont",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	r.Alerts = []models.Alert{{AlertType: "social", Severity: "low"}}
	if body := reportEmailBody(r, sender, ""); strings.Contains(body, "situations urgentes") {
		t.Errorf("low-severity alert must not raise the urgent banner:\n%s", body)
	}
}
