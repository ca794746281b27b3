package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Maraude statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// DayNames maps ISO day numbers (1=Monday .. 7=Sunday) to display names.
var DayNames = map[int]string{
	1: "Lundi",
	2: "Mardi",
	3: "Mercredi",
	4: "Jeudi",
	5: "Vendredi",
	6: "Samedi",
	7: "Dimanche",
}

// MaraudeAction is a scheduled street-outreach walking route. A recurring
// action carries DayOfWeek; a one-off action carries ScheduledDate. The two
// are mutually exclusive and enforced at request validation.
type MaraudeAction struct {
	bun.BaseModel `bun:"table:maraude_actions,alias:ma"`
	ID            uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`

	StartLatitude  float64 `bun:"start_latitude" json:"startLatitude"`
	StartLongitude float64 `bun:"start_longitude" json:"startLongitude"`
	StartAddress   string  `bun:"start_address" json:"startAddress,omitempty"`

	IsRecurring   bool       `bun:"is_recurring" json:"isRecurring"`
	DayOfWeek     *int       `bun:"day_of_week" json:"dayOfWeek,omitempty"` // 1=Monday .. 7=Sunday
	ScheduledDate *time.Time `bun:"scheduled_date" json:"scheduledDate,omitempty"`
	StartTime     string     `bun:"start_time" json:"startTime"`
	EndTime       string     `bun:"end_time" json:"endTime,omitempty"`

	Status              string  `json:"status"`
	ParticipantsCount   int     `bun:"participants_count" json:"participantsCount"`
	BeneficiariesHelped int     `bun:"beneficiaries_helped" json:"beneficiariesHelped"`
	Notes               string  `json:"notes,omitempty"`
	EstimatedDistanceKm float64 `bun:"estimated_distance_km" json:"estimatedDistance"`
	EstimatedDurationMin int    `bun:"estimated_duration_min" json:"estimatedDuration"`
	IsActive            bool    `bun:"is_active" json:"isActive"`

	CreatedBy     uuid.UUID    `bun:"created_by,type:uuid" json:"createdBy"`
	AssociationID uuid.UUID    `bun:"association_id,type:uuid" json:"associationId"`
	Association   *Association `bun:"rel:belongs-to,join:association_id=id" json:"association,omitempty"`
	Waypoints     []*Waypoint  `bun:"rel:has-many,join:id=maraude_action_id" json:"waypoints,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Computed per request, never stored.
	NextOccurrence   *time.Time `bun:"-" json:"nextOccurrence,omitempty"`
	IsHappeningToday bool       `bun:"-" json:"isHappeningToday"`
	DayName          string     `bun:"-" json:"dayName,omitempty"`
}

// Waypoint is an ordered stop along an outreach action's route. Order values
// form a dense 0..n-1 sequence within their parent action.
type Waypoint struct {
	bun.BaseModel `bun:"table:waypoints,alias:wp"`
	ID              uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	MaraudeActionID uuid.UUID `bun:"maraude_action_id,type:uuid" json:"maraudeActionId"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Address         string    `json:"address,omitempty"`
	Name            string    `json:"name,omitempty"`
	Order           int       `bun:"sort_order" json:"order"`
}

// NormalizeWaypoints sorts by Order and renumbers densely from 0.
func NormalizeWaypoints(wps []*Waypoint) {
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].Order < wps[j].Order })
	for i, wp := range wps {
		wp.Order = i
	}
}

// MoveWaypoint swaps the waypoint with the given ID one position up or down
// (delta -1 or +1). A move past either end is a no-op. Returns whether the
// slice changed.
func MoveWaypoint(wps []*Waypoint, id uuid.UUID, delta int) bool {
	NormalizeWaypoints(wps)
	for i, wp := range wps {
		if wp.ID != id {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(wps) {
			return false
		}
		wps[i].Order, wps[j].Order = wps[j].Order, wps[i].Order
		wps[i], wps[j] = wps[j], wps[i]
		return true
	}
	return false
}

// RemoveWaypoint deletes the waypoint with the given ID and renumbers the
// remainder densely. Returns the new slice and whether anything was removed.
func RemoveWaypoint(wps []*Waypoint, id uuid.UUID) ([]*Waypoint, bool) {
	out := wps[:0]
	removed := false
	for _, wp := range wps {
		if wp.ID == id {
			removed = true
			continue
		}
		out = append(out, wp)
	}
	if removed {
		NormalizeWaypoints(out)
	}
	return out, removed
}

// ISOWeekday converts a time to ISO day numbering (1=Monday .. 7=Sunday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday()) // 0=Sunday .. 6=Saturday
	if wd == 0 {
		return 7
	}
	return wd
}
