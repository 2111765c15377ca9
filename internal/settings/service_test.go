package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := "file:settings_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.TenantSettings{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGetMaterializesDefaults(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	settings, err := svc.Get(ctx, tenantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.Currency != "USD" || settings.TimeZone != "UTC" {
		t.Fatalf("unexpected defaults: %+v", settings)
	}

	again, err := svc.Get(ctx, tenantID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.ID != settings.ID {
		t.Fatal("defaults materialized twice")
	}
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	updated, err := svc.Update(ctx, UpdateInput{
		TenantID:   tenantID,
		TenantName: "Forge Lab",
		TimeZone:   "Europe/Madrid",
		Currency:   "EUR",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TenantName != "Forge Lab" || updated.Currency != "EUR" || updated.TimeZone != "Europe/Madrid" {
		t.Fatalf("unexpected result: %+v", updated)
	}
	// Unspecified fields keep their defaults.
	if updated.DateFormat != "yyyy-MM-dd" {
		t.Fatalf("date format should be untouched, got %s", updated.DateFormat)
	}
}

func TestUpdateRejectsBadTimeZone(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.Update(context.Background(), UpdateInput{
		TenantID:   uuid.New(),
		TenantName: "Forge Lab",
		TimeZone:   "Mars/Olympus",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
