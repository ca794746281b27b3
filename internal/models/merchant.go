package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Merchant categories.
const (
	CategoryRestaurant    = "restaurant"
	CategoryCafe          = "cafe"
	CategoryBakery        = "bakery"
	CategoryPharmacy      = "pharmacy"
	CategoryClothingStore = "clothing_store"
	CategorySupermarket   = "supermarket"
	CategoryLaundromat    = "laundromat"
	CategoryHealthCenter  = "health_center"
	CategoryOther         = "other"
)

// MerchantCategories lists the accepted category codes.
var MerchantCategories = []string{
	CategoryRestaurant, CategoryCafe, CategoryBakery, CategoryPharmacy,
	CategoryClothingStore, CategorySupermarket, CategoryLaundromat,
	CategoryHealthCenter, CategoryOther,
}

// Merchant is a partner business location offering services (free coffee,
// restroom, ...) to beneficiaries. Read-mostly from the map's perspective.
type Merchant struct {
	bun.BaseModel `bun:"table:merchants,alias:m"`
	ID            uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Services      []string  `bun:"services,array" json:"services"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Website       string    `json:"website,omitempty"`
	OpeningHours  map[string]string `bun:"opening_hours,type:jsonb" json:"openingHours,omitempty"`
	SpecialInstructions string `bun:"special_instructions" json:"specialInstructions,omitempty"`
	IsVerified    bool      `bun:"is_verified" json:"isVerified"`
	IsActive      bool      `bun:"is_active" json:"isActive"`
	ContactPerson string    `bun:"contact_person" json:"contactPerson,omitempty"`
	AddedBy       *uuid.UUID `bun:"added_by,type:uuid" json:"addedBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Computed by the nearby query, never stored.
	DistanceKm float64 `bun:"-" json:"distanceKm,omitempty"`
}
