package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Report workflow statuses.
const (
	ReportDraft     = "draft"
	ReportSubmitted = "submitted"
	ReportValidated = "validated"
)

// DistributionType is a catalog entry for supplies handed out during an
// outreach (meal, hygiene kit, ...).
type DistributionType struct {
	bun.BaseModel `bun:"table:distribution_types,alias:dt"`
	ID            uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"` // meal|hygiene|clothing|medical|other
	Icon          string    `json:"icon,omitempty"`
	Color         string    `json:"color,omitempty"`
	IsActive      bool      `bun:"is_active" json:"isActive"`
}

// Distribution records a quantity of one distribution type handed out.
type Distribution struct {
	DistributionTypeID uuid.UUID `json:"distributionTypeId"`
	Quantity           int       `json:"quantity"`
	Notes              string    `json:"notes,omitempty"`
}

// Alert records an incident observed during an outreach.
type Alert struct {
	AlertType            string   `json:"alertType"` // medical|social|security|housing|other
	Severity             string   `json:"severity"`  // low|medium|high|critical
	LocationLatitude     *float64 `json:"locationLatitude,omitempty"`
	LocationLongitude    *float64 `json:"locationLongitude,omitempty"`
	LocationAddress      string   `json:"locationAddress,omitempty"`
	PersonDescription    string   `json:"personDescription,omitempty"`
	SituationDescription string   `json:"situationDescription"`
	ActionTaken          string   `json:"actionTaken,omitempty"`
	FollowUpRequired     bool     `json:"followUpRequired"`
	FollowUpNotes        string   `json:"followUpNotes,omitempty"`
}

// MaraudeReport is the post-outreach record for one action and date.
// At most one non-cancelled report may exist per (action, reportDate).
type MaraudeReport struct {
	bun.BaseModel `bun:"table:maraude_reports,alias:mr"`
	ID            uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	MaraudeActionID uuid.UUID      `bun:"maraude_action_id,type:uuid" json:"maraudeActionId"`
	MaraudeAction   *MaraudeAction `bun:"rel:belongs-to,join:maraude_action_id=id" json:"maraudeAction,omitempty"`

	ReportDate time.Time `bun:"report_date" json:"reportDate"`
	StartTime  string    `bun:"start_time" json:"startTime"`
	EndTime    string    `bun:"end_time" json:"endTime"`

	BeneficiariesCount int `bun:"beneficiaries_count" json:"beneficiariesCount"`
	VolunteersCount    int `bun:"volunteers_count" json:"volunteersCount"`

	GeneralNotes            string `bun:"general_notes" json:"generalNotes,omitempty"`
	DifficultiesEncountered string `bun:"difficulties_encountered" json:"difficultiesEncountered,omitempty"`
	PositivePoints          string `bun:"positive_points" json:"positivePoints,omitempty"`
	UrgentSituationsDetails string `bun:"urgent_situations_details" json:"urgentSituationsDetails,omitempty"`

	Distributions []Distribution `bun:"distributions,type:jsonb" json:"distributions,omitempty"`
	Alerts        []Alert        `bun:"alerts,type:jsonb" json:"alerts,omitempty"`

	Status    string    `json:"status"`
	CreatedBy uuid.UUID `bun:"created_by,type:uuid" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasUrgentSituations reports whether any alert is high or critical.
func (r *MaraudeReport) HasUrgentSituations() bool {
	for _, a := range r.Alerts {
		if a.Severity == "high" || a.Severity == "critical" {
			return true
		}
	}
	return false
}

// ReportStats summarizes reports over a period.
type ReportStats struct {
	ReportCount         int            `json:"reportCount"`
	BeneficiariesTotal  int            `json:"beneficiariesTotal"`
	VolunteersTotal     int            `json:"volunteersTotal"`
	AlertCount          int            `json:"alertCount"`
	UrgentReportCount   int            `json:"urgentReportCount"`
	DistributionsByType map[string]int `json:"distributionsByType"`
}
