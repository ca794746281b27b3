package apiclient

import (
	"fmt"
	"time"
)

// User mirrors the authenticated user payload returned by the API.
type User struct {
	ID            string `json:"id"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	AssociationID string `json:"associationId"`
}

// TokenResponse is the payload of login, register and refresh calls.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"accessExpiresAt"`
	User         *User     `json:"user,omitempty"`
}

// Waypoint is one ordered stop on a maraude route.
type Waypoint struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	Name      string  `json:"name,omitempty"`
	Order     int     `json:"order"`
}

// Maraude is a street outreach action.
type Maraude struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Description          string      `json:"description,omitempty"`
	Status               string      `json:"status"`
	StartLatitude        float64     `json:"startLatitude"`
	StartLongitude       float64     `json:"startLongitude"`
	StartAddress         string      `json:"startAddress,omitempty"`
	IsRecurring          bool        `json:"isRecurring"`
	DayOfWeek            *int        `json:"dayOfWeek,omitempty"`
	ScheduledDate        *time.Time  `json:"scheduledDate,omitempty"`
	StartTime            string      `json:"startTime"`
	EndTime              string      `json:"endTime,omitempty"`
	ParticipantsCount    int         `json:"participantsCount"`
	EstimatedDistanceKm  float64     `json:"estimatedDistance"`
	EstimatedDurationMin int         `json:"estimatedDuration"`
	IsHappeningToday     bool        `json:"isHappeningToday"`
	DayName              string      `json:"dayName,omitempty"`
	NextOccurrence       *time.Time  `json:"nextOccurrence,omitempty"`
	Waypoints            []*Waypoint `json:"waypoints,omitempty"`
}

// Merchant is a partner business shown on the map.
type Merchant struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Services   []string `json:"services,omitempty"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Address    string   `json:"address"`
	IsVerified bool     `json:"isVerified"`
	IsActive   bool     `json:"isActive"`
	DistanceKm float64  `json:"distanceKm,omitempty"`
}

// Association is an organization running outreach actions.
type Association struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Website  string `json:"website,omitempty"`
	IsActive bool   `json:"isActive"`
}

// AssociationStats aggregates one association's members and actions.
type AssociationStats struct {
	Users struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"users"`
	Actions struct {
		Total      int `json:"total"`
		Completed  int `json:"completed"`
		Planned    int `json:"planned"`
		InProgress int `json:"inProgress"`
	} `json:"actions"`
}

// Report is a post-outreach record.
type Report struct {
	ID                 string    `json:"id"`
	MaraudeActionID    string    `json:"maraudeActionId"`
	ReportDate         time.Time `json:"reportDate"`
	Status             string    `json:"status"`
	BeneficiariesCount int       `json:"beneficiariesCount"`
	VolunteersCount    int       `json:"volunteersCount"`
}

// FeatureCollection is the raw GeoJSON document served by /map/features.
// Geometry stays untyped; map rendering libraries consume it as-is.
type FeatureCollection struct {
	Type     string           `json:"type"`
	Count    int              `json:"count"`
	Features []map[string]any `json:"features"`
}

// APIError carries the HTTP status and the server's error body.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}
