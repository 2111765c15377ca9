package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a client of the print shop.
type Customer struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	Email     string     `gorm:"column:email"`
	Phone     string     `gorm:"column:phone"`
	Address   string     `gorm:"column:address"`
	City      string     `gorm:"column:city"`
	State     string     `gorm:"column:state"`
	ZipCode   string     `gorm:"column:zip_code"`
	Country   string     `gorm:"column:country"`
	Notes     string     `gorm:"column:notes"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}
