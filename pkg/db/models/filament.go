package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filament is a physical roll of print material. WeightG is the current
// balance and only changes through recorded movements once the roll exists.
type Filament struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	Material  string          `gorm:"column:material;not null"`
	Color     string          `gorm:"column:color"`
	Brand     string          `gorm:"column:brand"`
	WeightG   decimal.Decimal `gorm:"column:weight_g;type:numeric(12,2);not null;default:0"`
	CostPerKg decimal.Decimal `gorm:"column:cost_per_kg;type:numeric(12,2);not null"`
	Notes     string          `gorm:"column:notes"`
	IsActive  bool            `gorm:"column:is_active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt *time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
}
