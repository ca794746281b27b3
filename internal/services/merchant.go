package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"maraude-bknd/internal/geo"
	"maraude-bknd/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type MerchantService struct {
	db *bun.DB
}

func NewMerchantService(db *bun.DB) *MerchantService {
	return &MerchantService{db: db}
}

type MerchantListParams struct {
	Categories   []string
	Services     []string
	VerifiedOnly bool
	ActiveOnly   bool
	Limit        int
	Offset       int
}

// List returns merchants matching the given filters, most recent first.
func (s *MerchantService) List(ctx context.Context, params MerchantListParams) ([]*models.Merchant, int, error) {
	var merchants []*models.Merchant
	q := s.db.NewSelect().Model(&merchants)

	if params.ActiveOnly {
		q = q.Where("m.is_active = true")
	}
	if params.VerifiedOnly {
		q = q.Where("m.is_verified = true")
	}
	if len(params.Categories) > 0 {
		lower := make([]string, len(params.Categories))
		for i, c := range params.Categories {
			lower[i] = strings.ToLower(c)
		}
		q = q.Where("LOWER(m.category) IN (?)", bun.In(lower))
	}
	if len(params.Services) > 0 {
		q = q.Where("m.services && ?", pgdialect.Array(params.Services))
	}

	count, err := q.
		OrderExpr("m.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return merchants, count, nil
}

// Get returns a single merchant by ID.
func (s *MerchantService) Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var m models.Merchant
	err := s.db.NewSelect().Model(&m).Where("m.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Nearby returns active merchants within radiusKm of the given point,
// ordered closest first. Distance is great-circle over the fetched set; the
// result carries the computed distance for display.
func (s *MerchantService) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]*models.Merchant, error) {
	var merchants []*models.Merchant
	err := s.db.NewSelect().Model(&merchants).
		Where("m.is_active = true").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	within := make([]*models.Merchant, 0, len(merchants))
	for _, m := range merchants {
		d := geo.Haversine(lat, lon, m.Latitude, m.Longitude)
		if d <= radiusKm {
			m.DistanceKm = d
			within = append(within, m)
		}
	}
	sort.Slice(within, func(i, j int) bool { return within[i].DistanceKm < within[j].DistanceKm })
	return within, nil
}

type MerchantInput struct {
	Name                string
	Description         string
	Category            string
	Services            []string
	Latitude            float64
	Longitude           float64
	Address             string
	Phone               string
	Email               string
	Website             string
	OpeningHours        map[string]string
	SpecialInstructions string
	ContactPerson       string
}

// Create inserts a merchant added by the caller. New entries start unverified.
func (s *MerchantService) Create(ctx context.Context, in MerchantInput, addedBy uuid.UUID) (*models.Merchant, error) {
	now := time.Now().UTC()
	m := models.Merchant{
		Name:                in.Name,
		Description:         in.Description,
		Category:            in.Category,
		Services:            in.Services,
		Latitude:            in.Latitude,
		Longitude:           in.Longitude,
		Address:             in.Address,
		Phone:               in.Phone,
		Email:               in.Email,
		Website:             in.Website,
		OpeningHours:        in.OpeningHours,
		SpecialInstructions: in.SpecialInstructions,
		ContactPerson:       in.ContactPerson,
		IsVerified:          false,
		IsActive:            true,
		AddedBy:             &addedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update overwrites merchant fields.
func (s *MerchantService) Update(ctx context.Context, id uuid.UUID, in MerchantInput) (*models.Merchant, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Name = in.Name
	m.Description = in.Description
	m.Category = in.Category
	m.Services = in.Services
	m.Latitude = in.Latitude
	m.Longitude = in.Longitude
	m.Address = in.Address
	m.Phone = in.Phone
	m.Email = in.Email
	m.Website = in.Website
	m.OpeningHours = in.OpeningHours
	m.SpecialInstructions = in.SpecialInstructions
	m.ContactPerson = in.ContactPerson
	m.UpdatedAt = time.Now().UTC()

	if _, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// SetVerified marks a merchant as verified by a coordinator.
func (s *MerchantService) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	res, err := s.db.NewUpdate().Model((*models.Merchant)(nil)).
		Set("is_verified = ?", verified).
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

// Delete removes a merchant.
func (s *MerchantService) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().Model((*models.Merchant)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
