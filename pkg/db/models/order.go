package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// Order is a production commitment derived from an approved quote. Items
// and prices are frozen at creation; later quote edits never reach an
// existing order.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TenantID    uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;index"`
	QuoteID     uuid.UUID         `gorm:"column:quote_id;type:uuid;not null"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	OrderNumber string            `gorm:"column:order_number;not null"`
	OrderSeq    int               `gorm:"column:order_seq;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'New'"`
	TotalCost   decimal.Decimal   `gorm:"column:total_cost;type:numeric(12,2);not null"`
	FinalPrice  decimal.Decimal   `gorm:"column:final_price;type:numeric(12,2);not null"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   *time.Time        `gorm:"column:updated_at;autoUpdateTime:false"`
}

// OrderItem is a snapshot copy of a quote item taken when the order was
// created.
type OrderItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	MachineID     uuid.UUID           `gorm:"column:machine_id;type:uuid;not null"`
	Position      int                 `gorm:"column:position;not null"`
	Description   string              `gorm:"column:description"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	PrintMinutes  decimal.Decimal     `gorm:"column:print_minutes;type:numeric(10,2);not null"`
	PostMinutes   decimal.Decimal     `gorm:"column:post_minutes;type:numeric(10,2);not null"`
	RiskPercent   decimal.Decimal     `gorm:"column:risk_percent;type:numeric(8,2);not null"`
	PackagingCost decimal.Decimal     `gorm:"column:packaging_cost;type:numeric(12,2);not null"`
	ItemCost      decimal.Decimal     `gorm:"column:item_cost;type:numeric(12,2);not null"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Materials     []OrderItemMaterial `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
}

// OrderItemMaterial freezes the per-unit filament draw of an order item.
type OrderItemMaterial struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderItemID uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null;index"`
	FilamentID  uuid.UUID       `gorm:"column:filament_id;type:uuid;not null"`
	WeightG     decimal.Decimal `gorm:"column:weight_g;type:numeric(12,2);not null"`
}
