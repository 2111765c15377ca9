package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Machine is a printer whose hourly cost feeds the pricing engine.
type Machine struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TenantID     uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Model        string          `gorm:"column:model"`
	Manufacturer string          `gorm:"column:manufacturer"`
	SerialNumber string          `gorm:"column:serial_number"`
	CostPerHour  decimal.Decimal `gorm:"column:cost_per_hour;type:numeric(12,2);not null"`
	Notes        string          `gorm:"column:notes"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    *time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
}
