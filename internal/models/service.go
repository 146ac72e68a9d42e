package models

import "time"

// Three service sources coexist; all resolve to the same
// {id, name, duration, price} tuple at the repository boundary.

// Service is the legacy provider-specific table. Rows imported from the
// old system may lack a structured duration; see the repository's
// duration fallback.
type Service struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProviderID uint `gorm:"index" json:"provider_id"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	DurationMin int     `json:"duration_min"`
	Price       float64 `json:"price"`
	Notes       string  `gorm:"size:255" json:"notes"`
	Active      bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogService is the marketplace-wide catalog entry.
type CatalogService struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	DurationMin int     `gorm:"not null" json:"duration_min"`
	Price       float64 `json:"price"`
	Category    string  `gorm:"size:50" json:"category"`
	Active      bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderServiceOverride customizes a catalog entry's price and/or
// duration for one provider.
type ProviderServiceOverride struct {
	ID               uint `gorm:"primaryKey" json:"id"`
	ProviderID       uint `gorm:"uniqueIndex:idx_provider_catalog" json:"provider_id"`
	CatalogServiceID uint `gorm:"uniqueIndex:idx_provider_catalog" json:"catalog_service_id"`

	DurationMin *int     `json:"duration_min"`
	Price       *float64 `json:"price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderService is the simple per-provider service table.
type ProviderService struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProviderID uint `gorm:"index" json:"provider_id"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	DurationMin int     `gorm:"not null" json:"duration_min"`
	Price       float64 `json:"price"`
	Active      bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
