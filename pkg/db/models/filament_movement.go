package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// FilamentMovement is one entry in the append-only filament ledger.
// QuantityG is signed: positive for entries, negative for consumption,
// either for adjustments. The roll balance equals the sum of its movements.
type FilamentMovement struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	TenantID   uuid.UUID          `gorm:"column:tenant_id;type:uuid;not null;index"`
	FilamentID uuid.UUID          `gorm:"column:filament_id;type:uuid;not null;index"`
	Type       enums.MovementType `gorm:"column:type;type:text;not null"`
	QuantityG  decimal.Decimal    `gorm:"column:quantity_g;type:numeric(12,2);not null"`
	Reason     string             `gorm:"column:reason"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
