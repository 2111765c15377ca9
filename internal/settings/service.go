package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// Service exposes per-tenant workshop settings. A tenant always has a
// settings row; Get materializes defaults on first read.
type Service interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error)
	Update(ctx context.Context, input UpdateInput) (*models.TenantSettings, error)
}

// UpdateInput carries the editable settings fields.
type UpdateInput struct {
	TenantID   uuid.UUID
	TenantName string
	TimeZone   string
	Currency   string
	DateFormat string
	Language   string
}

type service struct {
	db *gorm.DB
}

// NewService wires a settings service with its database handle.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &service{db: db}, nil
}

func (s *service) Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	var settings models.TenantSettings
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.TenantSettings{
			ID:         uuid.New(),
			TenantID:   tenantID,
			TenantName: "Workshop",
			TimeZone:   "UTC",
			Currency:   "USD",
			DateFormat: "yyyy-MM-dd",
			Language:   "en-US",
			MaxUsers:   5,
		}
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default settings")
		}
		return &settings, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return &settings, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.TenantSettings, error) {
	if input.TenantName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant name is required")
	}
	if input.TimeZone != "" {
		if _, err := time.LoadLocation(input.TimeZone); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown time zone %q", input.TimeZone))
		}
	}

	settings, err := s.Get(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	settings.TenantName = input.TenantName
	if input.TimeZone != "" {
		settings.TimeZone = input.TimeZone
	}
	if input.Currency != "" {
		settings.Currency = input.Currency
	}
	if input.DateFormat != "" {
		settings.DateFormat = input.DateFormat
	}
	if input.Language != "" {
		settings.Language = input.Language
	}
	settings.UpdatedAt = &now

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return settings, nil
}
