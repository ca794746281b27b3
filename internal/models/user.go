package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles a user can hold. Authorization is enforced server-side; role checks
// in clients are advisory only.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleVolunteer   = "volunteer"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            uuid.UUID  `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	FirstName     string     `bun:"first_name" json:"firstName"`
	LastName      string     `bun:"last_name" json:"lastName"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Phone         string     `json:"phone,omitempty"`
	IsActive      bool       `bun:"is_active" json:"isActive"`
	TokenVersion  int        `bun:"token_version" json:"-"`
	AssociationID uuid.UUID  `bun:"association_id,type:uuid" json:"associationId"`
	Association   *Association `bun:"rel:belongs-to,join:association_id=id" json:"association,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// IsCoordinatorOrAdmin reports whether the user may manage resources owned by
// their association (edit others' maraudes, validate reports, manage merchants).
func (u *User) IsCoordinatorOrAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleCoordinator
}

type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens"`
	ID            uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	UserID        uuid.UUID `bun:"user_id,type:uuid" json:"user_id"`
	JTI           string    `json:"jti"`
	TokenHash     string    `json:"token_hash"`
	DeviceInfo    *string   `json:"device_info"`
	Revoked       bool      `json:"revoked"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}
