package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Association is the organization operating one or more outreach actions.
type Association struct {
	bun.BaseModel `bun:"table:associations"`
	ID            uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	Website       string    `json:"website,omitempty"`
	IsActive      bool      `bun:"is_active" json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AssociationStats aggregates membership and action counts for one association.
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
