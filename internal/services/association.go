package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"maraude-bknd/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AssociationService struct {
	db *bun.DB
}

func NewAssociationService(db *bun.DB) *AssociationService {
	return &AssociationService{db: db}
}

// List returns associations, optionally including inactive ones.
func (s *AssociationService) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*models.Association, int, error) {
	var assocs []*models.Association
	q := s.db.NewSelect().Model(&assocs)
	if !includeInactive {
		q = q.Where("is_active = true")
	}
	count, err := q.
		OrderExpr("name ASC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return assocs, count, nil
}

// Get returns one association by ID.
func (s *AssociationService) Get(ctx context.Context, id uuid.UUID) (*models.Association, error) {
	var a models.Association
	err := s.db.NewSelect().Model(&a).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

type AssociationInput struct {
	Name        string
	Description string
	Email       string
	Phone       string
	Address     string
	Website     string
	IsActive    *bool
}

// Create inserts a new association (admin only, enforced at the route).
func (s *AssociationService) Create(ctx context.Context, in AssociationInput) (*models.Association, error) {
	now := time.Now().UTC()
	a := models.Association{
		Name:        in.Name,
		Description: in.Description,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		Website:     in.Website,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if _, err := s.db.NewInsert().Model(&a).Exec(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update overwrites association profile fields.
func (s *AssociationService) Update(ctx context.Context, id uuid.UUID, in AssociationInput) (*models.Association, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	a.Name = in.Name
	a.Description = in.Description
	a.Email = in.Email
	a.Phone = in.Phone
	a.Address = in.Address
	a.Website = in.Website
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	a.UpdatedAt = time.Now().UTC()

	if _, err := s.db.NewUpdate().Model(a).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Deactivate soft-excludes an association without deleting its history.
func (s *AssociationService) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewUpdate().Model((*models.Association)(nil)).
		Set("is_active = false").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates user and action counts for one association.
func (s *AssociationService) Stats(ctx context.Context, id uuid.UUID) (*models.AssociationStats, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	stats := &models.AssociationStats{}

	var err error
	stats.Users.Total, err = s.db.NewSelect().Model((*models.User)(nil)).Where("association_id = ?", id).Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.Users.Active, err = s.db.NewSelect().Model((*models.User)(nil)).Where("association_id = ? AND is_active = true", id).Count(ctx)
	if err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	var rows []statusCount
	err = s.db.NewSelect().Model((*models.MaraudeAction)(nil)).
		ColumnExpr("status, count(*) AS count").
		Where("association_id = ?", id).
		GroupExpr("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats.Actions.Total += row.Count
		switch row.Status {
		case models.StatusCompleted:
			stats.Actions.Completed = row.Count
		case models.StatusPlanned:
			stats.Actions.Planned = row.Count
		case models.StatusInProgress:
			stats.Actions.InProgress = row.Count
		}
	}
	return stats, nil
}
