package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// Quote is a costed proposal for one or more print jobs. The derived
// price fields are recalculation outputs only and go stale whenever
// items, margin, or adjustment change.
type Quote struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	TenantID        uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	QuoteNumber     string               `gorm:"column:quote_number;not null"`
	QuoteSeq        int                  `gorm:"column:quote_seq;not null;default:0"`
	Status          enums.QuoteStatus    `gorm:"column:status;type:text;not null;default:'Draft'"`
	MarginPercent   decimal.Decimal      `gorm:"column:margin_percent;type:numeric(8,2);not null;default:0"`
	AdjustmentType  enums.AdjustmentType `gorm:"column:adjustment_type;type:text;not null;default:'None'"`
	AdjustmentValue decimal.Decimal      `gorm:"column:adjustment_value;type:numeric(12,2);not null;default:0"`
	Notes           string               `gorm:"column:notes"`
	TotalCost       *decimal.Decimal     `gorm:"column:total_cost;type:numeric(12,2)"`
	SuggestedPrice  *decimal.Decimal     `gorm:"column:suggested_price;type:numeric(12,2)"`
	FinalPrice      *decimal.Decimal     `gorm:"column:final_price;type:numeric(12,2)"`
	Items           []QuoteItem          `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       *time.Time           `gorm:"column:updated_at;autoUpdateTime:false"`
}

// QuoteItem is one job line on a quote. Position keeps recalculation
// output stable and numbers the items; it carries no other meaning.
type QuoteItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID       uuid.UUID        `gorm:"column:quote_id;type:uuid;not null;index"`
	MachineID     uuid.UUID        `gorm:"column:machine_id;type:uuid;not null"`
	Position      int              `gorm:"column:position;not null"`
	Description   string           `gorm:"column:description"`
	Quantity      int              `gorm:"column:quantity;not null;default:1"`
	PrintMinutes  decimal.Decimal  `gorm:"column:print_minutes;type:numeric(10,2);not null;default:0"`
	PostMinutes   decimal.Decimal  `gorm:"column:post_minutes;type:numeric(10,2);not null;default:0"`
	RiskPercent   decimal.Decimal  `gorm:"column:risk_percent;type:numeric(8,2);not null;default:0"`
	PackagingCost decimal.Decimal  `gorm:"column:packaging_cost;type:numeric(12,2);not null;default:0"`
	MachineCost   *decimal.Decimal `gorm:"column:machine_cost;type:numeric(12,2)"`
	MaterialCost  *decimal.Decimal `gorm:"column:material_cost;type:numeric(12,2)"`
	ItemCost      *decimal.Decimal `gorm:"column:item_cost;type:numeric(12,2)"`
	UnitPrice     *decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	TotalPrice    *decimal.Decimal `gorm:"column:total_price;type:numeric(12,2)"`
	Materials     []QuoteMaterial  `gorm:"foreignKey:QuoteItemID;constraint:OnDelete:CASCADE"`
}

// QuoteMaterial is the filament draw of one unit of a quote item.
type QuoteMaterial struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteItemID uuid.UUID       `gorm:"column:quote_item_id;type:uuid;not null;index"`
	FilamentID  uuid.UUID       `gorm:"column:filament_id;type:uuid;not null"`
	WeightG     decimal.Decimal `gorm:"column:weight_g;type:numeric(12,2);not null"`
}
