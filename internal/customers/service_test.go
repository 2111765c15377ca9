package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.Quote{}, &models.QuoteItem{}, &models.QuoteMaterial{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestCustomerLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CustomerInput{
		TenantID: tenantID,
		Name:     "Acme Props",
		Email:    "orders@acmeprops.example",
		City:     "Valencia",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, tenantID, created.ID, CustomerInput{
		TenantID: tenantID,
		Name:     "Acme Props SL",
		Email:    "orders@acmeprops.example",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Acme Props SL" || updated.UpdatedAt == nil {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := svc.Delete(ctx, tenantID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, tenantID, created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCustomerDeleteBlockedByQuotes(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CustomerInput{TenantID: tenantID, Name: "Acme Props"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	quote := &models.Quote{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CustomerID:  created.ID,
		QuoteNumber: "Q-2026-0001",
	}
	if err := db.Create(quote).Error; err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	err = svc.Delete(ctx, tenantID, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCustomerListSearchAndScope(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	for _, name := range []string{"Acme Props", "Bolt Cosplay"} {
		if _, err := svc.Create(ctx, CustomerInput{TenantID: tenantID, Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := svc.Create(ctx, CustomerInput{TenantID: uuid.New(), Name: "Other Tenant"}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	all, err := svc.List(ctx, tenantID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(all))
	}
	matches, err := svc.List(ctx, tenantID, "bolt")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Bolt Cosplay" {
		t.Fatalf("unexpected search result: %+v", matches)
	}
}

func TestCustomerCreateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CustomerInput{TenantID: uuid.New()}); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, err := svc.Create(ctx, CustomerInput{Name: "Acme"}); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for missing tenant, got %v", err)
	}
}
