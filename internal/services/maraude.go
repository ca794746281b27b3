package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maraude-bknd/internal/filter"
	"maraude-bknd/internal/geo"
	"maraude-bknd/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

type MaraudeService struct {
	db *bun.DB
}

func NewMaraudeService(db *bun.DB) *MaraudeService {
	return &MaraudeService{db: db}
}

type MaraudeInput struct {
	Title               string
	Description         string
	StartLatitude       float64
	StartLongitude      float64
	StartAddress        string
	IsRecurring         bool
	DayOfWeek           *int
	ScheduledDate       *time.Time
	StartTime           string
	EndTime             string
	ParticipantsCount   int
	Notes               string
}

type MaraudeListParams struct {
	Status       string
	SelectedDays []int
	ActiveOnly   bool
	Association  uuid.UUID
	Limit        int
	Offset       int
}

// decorate fills the computed schedule fields the list views show.
func decorate(a *models.MaraudeAction, now time.Time) {
	today := models.ISOWeekday(now)

	switch {
	case a.IsRecurring && a.DayOfWeek != nil:
		a.DayName = models.DayNames[*a.DayOfWeek]
		a.IsHappeningToday = *a.DayOfWeek == today && a.Status != models.StatusCancelled
		daysAhead := (*a.DayOfWeek - today + 7) % 7
		next := now.AddDate(0, 0, daysAhead)
		a.NextOccurrence = &next
	case a.ScheduledDate != nil:
		a.DayName = models.DayNames[models.ISOWeekday(*a.ScheduledDate)]
		y1, m1, d1 := a.ScheduledDate.Date()
		y2, m2, d2 := now.Date()
		a.IsHappeningToday = y1 == y2 && m1 == m2 && d1 == d2 && a.Status != models.StatusCancelled
		if !a.ScheduledDate.Before(now.Truncate(24 * time.Hour)) {
			a.NextOccurrence = a.ScheduledDate
		}
	}
}

// List returns active maraudes with optional status/day filters applied
// after the fetch, mirroring how the map view narrows its result set.
func (s *MaraudeService) List(ctx context.Context, params MaraudeListParams) ([]*models.MaraudeAction, int, error) {
	var actions []*models.MaraudeAction
	q := s.db.NewSelect().Model(&actions).
		Relation("Association").
		Relation("Waypoints", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("sort_order ASC")
		})

	if params.ActiveOnly {
		q = q.Where("ma.is_active = true")
	}
	if params.Association != uuid.Nil {
		q = q.Where("ma.association_id = ?", params.Association)
	}

	count, err := q.
		OrderExpr("ma.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	for _, a := range actions {
		decorate(a, now)
	}

	state := filter.State{MaraudeStatus: params.Status, SelectedDays: params.SelectedDays}
	return filter.Maraudes(actions, state), count, nil
}

// TodayActive returns the actions happening today: recurring ones on today's
// weekday plus one-offs scheduled for today, excluding cancelled ones.
func (s *MaraudeService) TodayActive(ctx context.Context) ([]*models.MaraudeAction, error) {
	now := time.Now()
	today := models.ISOWeekday(now)

	var actions []*models.MaraudeAction
	err := s.db.NewSelect().Model(&actions).
		Relation("Association").
		Relation("Waypoints", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("sort_order ASC")
		}).
		Where("ma.is_active = true").
		Where("ma.status != ?", models.StatusCancelled).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("ma.is_recurring = true AND ma.day_of_week = ?", today).
				WhereOr("ma.is_recurring = false AND ma.scheduled_date::date = ?::date", now.Format("2006-01-02"))
		}).
		OrderExpr("ma.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, a := range actions {
		decorate(a, now)
	}
	return actions, nil
}

// WeeklySchedule groups active recurring actions by ISO day 1..7.
func (s *MaraudeService) WeeklySchedule(ctx context.Context) (map[int][]*models.MaraudeAction, error) {
	var actions []*models.MaraudeAction
	err := s.db.NewSelect().Model(&actions).
		Relation("Association").
		Where("ma.is_active = true").
		Where("ma.is_recurring = true").
		Where("ma.day_of_week IS NOT NULL").
		OrderExpr("ma.day_of_week ASC, ma.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	schedule := make(map[int][]*models.MaraudeAction, 7)
	for _, a := range actions {
		decorate(a, now)
		schedule[*a.DayOfWeek] = append(schedule[*a.DayOfWeek], a)
	}
	return schedule, nil
}

// Get returns one maraude with its association and ordered waypoints.
func (s *MaraudeService) Get(ctx context.Context, id uuid.UUID) (*models.MaraudeAction, error) {
	var a models.MaraudeAction
	err := s.db.NewSelect().Model(&a).
		Relation("Association").
		Relation("Waypoints", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("sort_order ASC")
		}).
		Where("ma.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	decorate(&a, time.Now())
	return &a, nil
}

// Create inserts a maraude owned by the caller's association.
func (s *MaraudeService) Create(ctx context.Context, in MaraudeInput, createdBy, associationID uuid.UUID) (*models.MaraudeAction, error) {
	now := time.Now().UTC()
	a := models.MaraudeAction{
		Title:             in.Title,
		Description:       in.Description,
		StartLatitude:     in.StartLatitude,
		StartLongitude:    in.StartLongitude,
		StartAddress:      in.StartAddress,
		IsRecurring:       in.IsRecurring,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		Status:            models.StatusPlanned,
		ParticipantsCount: in.ParticipantsCount,
		Notes:             in.Notes,
		IsActive:          true,
		CreatedBy:         createdBy,
		AssociationID:     associationID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	// dayOfWeek and scheduledDate are mutually exclusive; validation upstream
	// guarantees the matching one is set.
	if in.IsRecurring {
		a.DayOfWeek = in.DayOfWeek
	} else {
		a.ScheduledDate = in.ScheduledDate
	}

	if _, err := s.db.NewInsert().Model(&a).Exec(ctx); err != nil {
		return nil, err
	}
	decorate(&a, time.Now())
	return &a, nil
}

// Update mutates an existing maraude. Only the creator or a coordinator/admin
// of the owning association may edit.
func (s *MaraudeService) Update(ctx context.Context, id uuid.UUID, in MaraudeInput, callerID uuid.UUID, callerRole string) (*models.MaraudeAction, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(a, callerID, callerRole) {
		return nil, ErrForbidden
	}

	a.Title = in.Title
	a.Description = in.Description
	a.StartLatitude = in.StartLatitude
	a.StartLongitude = in.StartLongitude
	a.StartAddress = in.StartAddress
	a.IsRecurring = in.IsRecurring
	a.StartTime = in.StartTime
	a.EndTime = in.EndTime
	a.ParticipantsCount = in.ParticipantsCount
	a.Notes = in.Notes
	if in.IsRecurring {
		a.DayOfWeek = in.DayOfWeek
		a.ScheduledDate = nil
	} else {
		a.DayOfWeek = nil
		a.ScheduledDate = in.ScheduledDate
	}
	a.UpdatedAt = time.Now().UTC()

	if _, err := s.db.NewUpdate().Model(a).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	decorate(a, time.Now())
	return a, nil
}

// UpdateStatus flips the lifecycle status (planned/in_progress/completed/cancelled).
func (s *MaraudeService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, beneficiariesHelped *int, callerID uuid.UUID, callerRole string) (*models.MaraudeAction, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(a, callerID, callerRole) {
		return nil, ErrForbidden
	}

	a.Status = status
	if beneficiariesHelped != nil {
		a.BeneficiariesHelped = *beneficiariesHelped
	}
	a.UpdatedAt = time.Now().UTC()

	if _, err := s.db.NewUpdate().Model(a).
		Column("status", "beneficiaries_helped", "updated_at").
		WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes a maraude and its waypoints.
func (s *MaraudeService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(a, callerID, callerRole) {
		return ErrForbidden
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Waypoint)(nil)).Where("maraude_action_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*models.MaraudeAction)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

func canManage(a *models.MaraudeAction, callerID uuid.UUID, callerRole string) bool {
	if callerRole == models.RoleAdmin || callerRole == models.RoleCoordinator {
		return true
	}
	return a.CreatedBy == callerID
}

type WaypointInput struct {
	Latitude  float64
	Longitude float64
	Address   string
	Name      string
}

// AddWaypoint appends a stop at the end of the route and re-estimates it.
func (s *MaraudeService) AddWaypoint(ctx context.Context, maraudeID uuid.UUID, in WaypointInput, callerID uuid.UUID, callerRole string) (*models.MaraudeAction, error) {
	a, err := s.Get(ctx, maraudeID)
	if err != nil {
		return nil, err
	}
	if !canManage(a, callerID, callerRole) {
		return nil, ErrForbidden
	}

	wp := &models.Waypoint{
		MaraudeActionID: maraudeID,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Address:         in.Address,
		Name:            in.Name,
		Order:           len(a.Waypoints),
	}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(wp).Exec(ctx); err != nil {
			return err
		}
		a.Waypoints = append(a.Waypoints, wp)
		return s.saveEstimate(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveWaypoint deletes a stop, renumbers the rest densely and re-estimates.
func (s *MaraudeService) RemoveWaypoint(ctx context.Context, maraudeID, waypointID uuid.UUID, callerID uuid.UUID, callerRole string) (*models.MaraudeAction, error) {
	a, err := s.Get(ctx, maraudeID)
	if err != nil {
		return nil, err
	}
	if !canManage(a, callerID, callerRole) {
		return nil, ErrForbidden
	}

	remaining, removed := models.RemoveWaypoint(a.Waypoints, waypointID)
	if !removed {
		return nil, ErrNotFound
	}
	a.Waypoints = remaining

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Waypoint)(nil)).Where("id = ?", waypointID).Exec(ctx); err != nil {
			return err
		}
		if err := s.saveWaypointOrder(ctx, tx, a.Waypoints); err != nil {
			return err
		}
		return s.saveEstimate(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MoveWaypoint swaps a stop with its neighbor (direction "up" or "down").
// Order values stay a dense 0..n-1 sequence.
func (s *MaraudeService) MoveWaypoint(ctx context.Context, maraudeID, waypointID uuid.UUID, direction string, callerID uuid.UUID, callerRole string) (*models.MaraudeAction, error) {
	a, err := s.Get(ctx, maraudeID)
	if err != nil {
		return nil, err
	}
	if !canManage(a, callerID, callerRole) {
		return nil, ErrForbidden
	}

	delta := +1
	if direction == "up" {
		delta = -1
	}
	if !models.MoveWaypoint(a.Waypoints, waypointID, delta) {
		// moving past either end is a no-op, not an error
		return a, nil
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.saveWaypointOrder(ctx, tx, a.Waypoints); err != nil {
			return err
		}
		return s.saveEstimate(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ReplaceWaypoints swaps the whole ordered list in one call.
func (s *MaraudeService) ReplaceWaypoints(ctx context.Context, maraudeID uuid.UUID, inputs []WaypointInput, callerID uuid.UUID, callerRole string) (*models.MaraudeAction, error) {
	a, err := s.Get(ctx, maraudeID)
	if err != nil {
		return nil, err
	}
	if !canManage(a, callerID, callerRole) {
		return nil, ErrForbidden
	}

	wps := make([]*models.Waypoint, 0, len(inputs))
	for i, in := range inputs {
		wps = append(wps, &models.Waypoint{
			MaraudeActionID: maraudeID,
			Latitude:        in.Latitude,
			Longitude:       in.Longitude,
			Address:         in.Address,
			Name:            in.Name,
			Order:           i,
		})
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Waypoint)(nil)).Where("maraude_action_id = ?", maraudeID).Exec(ctx); err != nil {
			return err
		}
		if len(wps) > 0 {
			if _, err := tx.NewInsert().Model(&wps).Exec(ctx); err != nil {
				return err
			}
		}
		a.Waypoints = wps
		return s.saveEstimate(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *MaraudeService) saveWaypointOrder(ctx context.Context, tx bun.Tx, wps []*models.Waypoint) error {
	for _, wp := range wps {
		if _, err := tx.NewUpdate().Model(wp).Column("sort_order").WherePK().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// saveEstimate recomputes the route distance/duration from the current
// waypoint list and persists it on the action.
func (s *MaraudeService) saveEstimate(ctx context.Context, tx bun.Tx, a *models.MaraudeAction) error {
	points := make([]geo.Point, 0, len(a.Waypoints))
	for _, wp := range a.Waypoints {
		points = append(points, geo.Point{Lat: wp.Latitude, Lon: wp.Longitude})
	}
	km, minutes := geo.EstimateRoute(geo.Point{Lat: a.StartLatitude, Lon: a.StartLongitude}, points)

	a.EstimatedDistanceKm = km
	a.EstimatedDurationMin = minutes
	a.UpdatedAt = time.Now().UTC()

	_, err := tx.NewUpdate().Model(a).
		Column("estimated_distance_km", "estimated_duration_min", "updated_at").
		WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("save route estimate: %w", err)
	}
	return nil
}
