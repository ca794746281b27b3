package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"maraude-bknd/internal/mail"
	"maraude-bknd/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrDuplicateReport signals an existing report for the same action and date.
var ErrDuplicateReport = errors.New("a report already exists for this action and date")

type ReportService struct {
	db     *bun.DB
	mailer mail.Sender
}

func NewReportService(db *bun.DB, mailer mail.Sender) *ReportService {
	return &ReportService{db: db, mailer: mailer}
}

type ReportListParams struct {
	MaraudeActionID uuid.UUID
	Status          string
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}

// List returns reports newest first with optional action/status/date filters.
func (s *ReportService) List(ctx context.Context, params ReportListParams) ([]*models.MaraudeReport, int, error) {
	var reports []*models.MaraudeReport
	q := s.db.NewSelect().Model(&reports).
		Relation("MaraudeAction")

	if params.MaraudeActionID != uuid.Nil {
		q = q.Where("mr.maraude_action_id = ?", params.MaraudeActionID)
	}
	if params.Status != "" {
		q = q.Where("mr.status = ?", params.Status)
	}
	if params.From != nil {
		q = q.Where("mr.report_date >= ?", params.From)
	}
	if params.To != nil {
		q = q.Where("mr.report_date <= ?", params.To)
	}

	count, err := q.
		OrderExpr("mr.report_date DESC, mr.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return reports, count, nil
}

// Get returns one report with its action.
func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.MaraudeReport, error) {
	var r models.MaraudeReport
	err := s.db.NewSelect().Model(&r).
		Relation("MaraudeAction").
		Where("mr.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// FindDuplicate returns an existing report for the given action and date, or
// nil. Used by the pre-submission duplicate check and enforced on create.
func (s *ReportService) FindDuplicate(ctx context.Context, actionID uuid.UUID, date time.Time) (*models.MaraudeReport, error) {
	var r models.MaraudeReport
	err := s.db.NewSelect().Model(&r).
		Where("mr.maraude_action_id = ?", actionID).
		Where("mr.report_date::date = ?::date", date.Format("2006-01-02")).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

type ReportInput struct {
	MaraudeActionID         uuid.UUID
	ReportDate              time.Time
	StartTime               string
	EndTime                 string
	BeneficiariesCount      int
	VolunteersCount         int
	GeneralNotes            string
	DifficultiesEncountered string
	PositivePoints          string
	UrgentSituationsDetails string
	Distributions           []models.Distribution
	Alerts                  []models.Alert
}

// Create inserts a draft report, rejecting duplicates for the same action
// and date.
func (s *ReportService) Create(ctx context.Context, in ReportInput, createdBy uuid.UUID) (*models.MaraudeReport, error) {
	exists, err := s.db.NewSelect().Model((*models.MaraudeAction)(nil)).Where("id = ?", in.MaraudeActionID).Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("maraude action not found")
	}

	dup, err := s.FindDuplicate(ctx, in.MaraudeActionID, in.ReportDate)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, ErrDuplicateReport
	}

	now := time.Now().UTC()
	r := models.MaraudeReport{
		MaraudeActionID:         in.MaraudeActionID,
		ReportDate:              in.ReportDate,
		StartTime:               in.StartTime,
		EndTime:                 in.EndTime,
		BeneficiariesCount:      in.BeneficiariesCount,
		VolunteersCount:         in.VolunteersCount,
		GeneralNotes:            in.GeneralNotes,
		DifficultiesEncountered: in.DifficultiesEncountered,
		PositivePoints:          in.PositivePoints,
		UrgentSituationsDetails: in.UrgentSituationsDetails,
		Distributions:           in.Distributions,
		Alerts:                  in.Alerts,
		Status:                  models.ReportDraft,
		CreatedBy:               createdBy,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if _, err := s.db.NewInsert().Model(&r).Exec(ctx); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update overwrites a draft report's fields. Submitted and validated reports
// are immutable.
func (s *ReportService) Update(ctx context.Context, id uuid.UUID, in ReportInput, callerID uuid.UUID, callerRole string) (*models.MaraudeReport, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != models.ReportDraft {
		return nil, fmt.Errorf("only draft reports can be edited")
	}
	if r.CreatedBy != callerID && callerRole != models.RoleAdmin && callerRole != models.RoleCoordinator {
		return nil, ErrForbidden
	}

	r.ReportDate = in.ReportDate
	r.StartTime = in.StartTime
	r.EndTime = in.EndTime
	r.BeneficiariesCount = in.BeneficiariesCount
	r.VolunteersCount = in.VolunteersCount
	r.GeneralNotes = in.GeneralNotes
	r.DifficultiesEncountered = in.DifficultiesEncountered
	r.PositivePoints = in.PositivePoints
	r.UrgentSituationsDetails = in.UrgentSituationsDetails
	r.Distributions = in.Distributions
	r.Alerts = in.Alerts
	r.UpdatedAt = time.Now().UTC()

	if _, err := s.db.NewUpdate().Model(r).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Submit moves a draft to submitted.
func (s *ReportService) Submit(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string) (*models.MaraudeReport, error) {
	return s.transition(ctx, id, models.ReportDraft, models.ReportSubmitted, func(r *models.MaraudeReport) error {
		if r.CreatedBy != callerID && callerRole != models.RoleAdmin && callerRole != models.RoleCoordinator {
			return ErrForbidden
		}
		return nil
	})
}

// Validate moves a submitted report to validated (coordinator/admin only,
// enforced at the route).
func (s *ReportService) Validate(ctx context.Context, id uuid.UUID) (*models.MaraudeReport, error) {
	return s.transition(ctx, id, models.ReportSubmitted, models.ReportValidated, nil)
}

func (s *ReportService) transition(ctx context.Context, id uuid.UUID, from, to string, check func(*models.MaraudeReport) error) (*models.MaraudeReport, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != from {
		return nil, fmt.Errorf("report is %s, expected %s", r.Status, from)
	}
	if check != nil {
		if err := check(r); err != nil {
			return nil, err
		}
	}

	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	if _, err := s.db.NewUpdate().Model(r).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a draft report. Only its author or a coordinator/admin.
func (s *ReportService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.CreatedBy != callerID && callerRole != models.RoleAdmin && callerRole != models.RoleCoordinator {
		return ErrForbidden
	}
	_, err = s.db.NewDelete().Model((*models.MaraudeReport)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

type ReportEmailInput struct {
	Recipients []string
	Subject    string
	Message    string
}

// SendEmail mails a text summary of one report. Only the report's author or a
// coordinator/admin may send it. Returns a confirmation message.
func (s *ReportService) SendEmail(ctx context.Context, id, callerID uuid.UUID, in ReportEmailInput) (string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	var caller models.User
	if err := s.db.NewSelect().Model(&caller).Where("u.id = ?", callerID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrForbidden
		}
		return "", err
	}
	if !canSendReportEmail(r, &caller) {
		return "", ErrForbidden
	}

	subject := in.Subject
	if subject == "" {
		subject = reportEmailSubject(r)
	}
	if err := s.mailer.Send(ctx, in.Recipients, subject, reportEmailBody(r, &caller, in.Message)); err != nil {
		return "", err
	}
	return fmt.Sprintf("rapport envoyé à %d destinataire(s)", len(in.Recipients)), nil
}

func canSendReportEmail(r *models.MaraudeReport, caller *models.User) bool {
	return r.CreatedBy == caller.ID || caller.IsCoordinatorOrAdmin()
}

func reportEmailSubject(r *models.MaraudeReport) string {
	subject := "Rapport de maraude du " + r.ReportDate.Format("02/01/2006")
	if r.MaraudeAction != nil {
		subject += " - " + r.MaraudeAction.Title
	}
	return subject
}

func reportEmailBody(r *models.MaraudeReport, sender *models.User, message string) string {
	var b strings.Builder
	if message != "" {
		b.WriteString(message + "\n\n")
	}
	fmt.Fprintf(&b, "Date : %s\n", r.ReportDate.Format("02/01/2006"))
	if r.MaraudeAction != nil {
		fmt.Fprintf(&b, "Maraude : %s\n", r.MaraudeAction.Title)
	}
	fmt.Fprintf(&b, "Bénéficiaires rencontrés : %d\n", r.BeneficiariesCount)
	fmt.Fprintf(&b, "Bénévoles présents : %d\n", r.VolunteersCount)
	if len(r.Alerts) > 0 {
		fmt.Fprintf(&b, "Alertes signalées : %d\n", len(r.Alerts))
	}
	if r.HasUrgentSituations() {
		b.WriteString("\nATTENTION : ce rapport signale des situations urgentes.\n")
		if r.UrgentSituationsDetails != "" {
			b.WriteString(r.UrgentSituationsDetails + "\n")
		}
	}
	if r.GeneralNotes != "" {
		b.WriteString("\n" + r.GeneralNotes + "\n")
	}
	fmt.Fprintf(&b, "\nEnvoyé par %s %s", sender.FirstName, sender.LastName)
	return b.String()
}

// DistributionTypes returns the active supply catalog.
func (s *ReportService) DistributionTypes(ctx context.Context) ([]*models.DistributionType, error) {
	var types []*models.DistributionType
	err := s.db.NewSelect().Model(&types).
		Where("is_active = true").
		OrderExpr("category ASC, name ASC").
		Scan(ctx)
	return types, err
}

// Stats aggregates beneficiaries, volunteers, alerts and distributions over
// the reports matching the filters.
func (s *ReportService) Stats(ctx context.Context, params ReportListParams) (*models.ReportStats, error) {
	params.Limit = 0
	params.Offset = 0

	var reports []*models.MaraudeReport
	q := s.db.NewSelect().Model(&reports)
	if params.MaraudeActionID != uuid.Nil {
		q = q.Where("mr.maraude_action_id = ?", params.MaraudeActionID)
	}
	if params.Status != "" {
		q = q.Where("mr.status = ?", params.Status)
	}
	if params.From != nil {
		q = q.Where("mr.report_date >= ?", params.From)
	}
	if params.To != nil {
		q = q.Where("mr.report_date <= ?", params.To)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	stats := &models.ReportStats{DistributionsByType: make(map[string]int)}
	for _, r := range reports {
		stats.ReportCount++
		stats.BeneficiariesTotal += r.BeneficiariesCount
		stats.VolunteersTotal += r.VolunteersCount
		stats.AlertCount += len(r.Alerts)
		if r.HasUrgentSituations() {
			stats.UrgentReportCount++
		}
		for _, d := range r.Distributions {
			stats.DistributionsByType[d.DistributionTypeID.String()] += d.Quantity
		}
	}
	return stats, nil
}
