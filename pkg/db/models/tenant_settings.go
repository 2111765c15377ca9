package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantSettings holds per-tenant display and locale preferences.
type TenantSettings struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	TenantID   uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	TenantName string     `gorm:"column:tenant_name;not null"`
	TimeZone   string     `gorm:"column:time_zone;not null;default:'UTC'"`
	Currency   string     `gorm:"column:currency;not null;default:'USD'"`
	DateFormat string     `gorm:"column:date_format;not null;default:'yyyy-MM-dd'"`
	Language   string     `gorm:"column:language;not null;default:'en-US'"`
	MaxUsers   int        `gorm:"column:max_users;not null;default:5"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}
