package filaments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestCreateSeedsEntryMovement(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	filament, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  tenantID,
		Material:  "PLA",
		Color:     "Black",
		Brand:     "Prusament",
		WeightG:   decimal.RequireFromString("1000"),
		CostPerKg: decimal.RequireFromString("24.90"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !filament.IsActive {
		t.Fatal("new roll should be active")
	}

	var movements []models.FilamentMovement
	if err := db.Where("filament_id = ?", filament.ID).Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 entry movement, got %d", len(movements))
	}
	if movements[0].Type != enums.MovementTypeEntry {
		t.Fatalf("expected entry movement, got %s", movements[0].Type)
	}
	if !movements[0].QuantityG.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("unexpected entry quantity %s", movements[0].QuantityG)
	}
}

func TestCreateZeroWeightSkipsMovement(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	filament, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  uuid.New(),
		Material:  "ABS",
		WeightG:   decimal.Zero,
		CostPerKg: decimal.RequireFromString("19.00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var count int64
	if err := db.Model(&models.FilamentMovement{}).Where("filament_id = ?", filament.ID).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no movements for empty roll, got %d", count)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateFilamentInput
	}{
		{"missing tenant", CreateFilamentInput{Material: "PLA"}},
		{"missing material", CreateFilamentInput{TenantID: uuid.New()}},
		{"negative weight", CreateFilamentInput{TenantID: uuid.New(), Material: "PLA", WeightG: decimal.RequireFromString("-1")}},
		{"negative cost", CreateFilamentInput{TenantID: uuid.New(), Material: "PLA", CostPerKg: decimal.RequireFromString("-1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateKeepsWeight(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  tenantID,
		Material:  "PLA",
		Color:     "Black",
		WeightG:   decimal.RequireFromString("800"),
		CostPerKg: decimal.RequireFromString("24.90"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, UpdateFilamentInput{
		TenantID:  tenantID,
		ID:        created.ID,
		Material:  "PLA+",
		Color:     "Galaxy Black",
		Brand:     "Prusament",
		CostPerKg: decimal.RequireFromString("29.90"),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Material != "PLA+" || updated.Color != "Galaxy Black" {
		t.Fatalf("metadata not updated: %+v", updated)
	}
	if !updated.WeightG.Equal(decimal.RequireFromString("800")) {
		t.Fatalf("update must not touch the balance, got %s", updated.WeightG)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("expected updated_at to be set")
	}
}

func TestDeleteWithoutMovements(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  tenantID,
		Material:  "PLA",
		WeightG:   decimal.Zero,
		CostPerKg: decimal.RequireFromString("24.90"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, tenantID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var count int64
	if err := db.Model(&models.Filament{}).Where("id = ?", created.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("expected roll removed")
	}
}

func TestDeleteWithMovementsDeactivates(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  tenantID,
		Material:  "PLA",
		WeightG:   decimal.RequireFromString("500"),
		CostPerKg: decimal.RequireFromString("24.90"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, tenantID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var after models.Filament
	if err := db.First(&after, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("expected roll kept: %v", err)
	}
	if after.IsActive {
		t.Fatal("expected roll deactivated")
	}
}

func TestAdjustWeight(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  tenantID,
		Material:  "PETG",
		WeightG:   decimal.RequireFromString("420"),
		CostPerKg: decimal.RequireFromString("27.00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	adjusted, err := svc.AdjustWeight(ctx, AdjustWeightInput{
		TenantID:   tenantID,
		FilamentID: created.ID,
		NewWeightG: decimal.RequireFromString("395.50"),
		Reason:     "Stocktake",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !adjusted.WeightG.Equal(decimal.RequireFromString("395.50")) {
		t.Fatalf("unexpected balance %s", adjusted.WeightG)
	}

	var movements []models.FilamentMovement
	if err := db.Where("filament_id = ? AND type = ?", created.ID, enums.MovementTypeAdjustment).Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(movements))
	}
	if !movements[0].QuantityG.Equal(decimal.RequireFromString("-24.50")) {
		t.Fatalf("unexpected adjustment delta %s", movements[0].QuantityG)
	}
	if movements[0].Reason != "Stocktake" {
		t.Fatalf("unexpected reason %q", movements[0].Reason)
	}
}

func TestAdjustWeightNoChange(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, CreateFilamentInput{
		TenantID:  tenantID,
		Material:  "PETG",
		WeightG:   decimal.RequireFromString("420"),
		CostPerKg: decimal.RequireFromString("27.00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AdjustWeight(ctx, AdjustWeightInput{
		TenantID:   tenantID,
		FilamentID: created.ID,
		NewWeightG: decimal.RequireFromString("420"),
		Reason:     "Stocktake",
	}); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	var count int64
	if err := db.Model(&models.FilamentMovement{}).
		Where("filament_id = ? AND type = ?", created.ID, enums.MovementTypeAdjustment).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no-op adjustment should not record a movement, got %d", count)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListSearch(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	seedFilament(t, db, tenantID, "PLA", "Black", "100")
	seedFilament(t, db, tenantID, "PETG", "Transparent Red", "200")
	seedFilament(t, db, uuid.New(), "PLA", "Black", "300")

	all, err := svc.List(ctx, tenantID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected tenant-scoped list of 2, got %d", len(all))
	}

	matches, err := svc.List(ctx, tenantID, "red")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || matches[0].Material != "PETG" {
		t.Fatalf("unexpected search result: %+v", matches)
	}
}

// debitAfterReadRepo lands a stock debit in the same transaction right
// after the balance is read, the interleaving a consume can produce
// under read committed.
type debitAfterReadRepo struct {
	Repository
	tx *gorm.DB
}

func (r *debitAfterReadRepo) WithTx(tx *gorm.DB) Repository {
	return &debitAfterReadRepo{Repository: r.Repository.WithTx(tx), tx: tx}
}

func (r *debitAfterReadRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Filament, error) {
	filament, err := r.Repository.FindByID(ctx, tenantID, id)
	if err != nil || r.tx == nil {
		return filament, err
	}
	if err := r.tx.Exec(`UPDATE filaments SET weight_g = weight_g - 50 WHERE id = ?`, id).Error; err != nil {
		return nil, err
	}
	return filament, nil
}

func TestAdjustWeightConflictsOnConcurrentDebit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	roll := seedFilament(t, db, tenantID, "PLA", "Black", "500")

	svc, err := NewService(&debitAfterReadRepo{Repository: NewRepository(db)}, gormTxRunner{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.AdjustWeight(ctx, AdjustWeightInput{
		TenantID:   tenantID,
		FilamentID: roll.ID,
		NewWeightG: decimal.RequireFromString("480"),
		Reason:     "Stocktake",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on stale balance, got %v", err)
	}

	// The rollback reverts both the rival debit and the adjustment, so
	// the ledger still sums to the stored balance.
	var after models.Filament
	if err := db.First(&after, "id = ?", roll.ID).Error; err != nil {
		t.Fatalf("load roll: %v", err)
	}
	if !after.WeightG.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("balance changed on rejected adjustment: %s", after.WeightG)
	}
	var count int64
	if err := db.Model(&models.FilamentMovement{}).
		Where("filament_id = ? AND type = ?", roll.ID, enums.MovementTypeAdjustment).
		Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected adjustment must not record a movement, got %d", count)
	}
}
