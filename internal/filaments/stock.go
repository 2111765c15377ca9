package filaments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// StockRequirement is the total gram draw an order places on one roll.
type StockRequirement struct {
	FilamentID uuid.UUID
	RequiredG  decimal.Decimal
}

// Shortfall reports one roll whose balance cannot cover its requirement.
type Shortfall struct {
	FilamentID uuid.UUID       `json:"filamentId"`
	Material   string          `json:"material"`
	Color      string          `json:"color"`
	MissingG   decimal.Decimal `json:"missingG"`
}

// ConsumeStock verifies that every requirement fits the current roll
// balances and debits them, recording one Consumption movement per roll.
// It must run inside the caller's transaction: either all debits commit
// together with the caller's writes or none do.
//
// Insufficient balances reject the whole call with every shortfall
// enumerated; nothing is debited. A guarded UPDATE backs each debit, so
// a concurrent writer that drains a roll between the check and the
// debit surfaces as a conflict instead of a negative balance.
func ConsumeStock(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, requirements []StockRequirement, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock consumption")
	}
	if len(requirements) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(requirements))
	required := make(map[uuid.UUID]decimal.Decimal, len(requirements))
	for _, req := range requirements {
		if !req.RequiredG.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("required grams must be positive for filament %s", req.FilamentID))
		}
		if _, dup := required[req.FilamentID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate requirement for filament %s", req.FilamentID))
		}
		ids = append(ids, req.FilamentID)
		required[req.FilamentID] = req.RequiredG
	}

	var rolls []models.Filament
	if err := tx.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rolls).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filament balances")
	}

	byID := make(map[uuid.UUID]models.Filament, len(rolls))
	for _, roll := range rolls {
		byID[roll.ID] = roll
	}

	shortfalls := []Shortfall{}
	for _, id := range ids {
		roll, ok := byID[id]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown filament %s", id))
		}
		if roll.WeightG.LessThan(required[id]) {
			shortfalls = append(shortfalls, Shortfall{
				FilamentID: roll.ID,
				Material:   roll.Material,
				Color:      roll.Color,
				MissingG:   required[id].Sub(roll.WeightG),
			})
		}
	}
	if len(shortfalls) > 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient filament stock").
			WithDetails(map[string]any{"missingMaterials": shortfalls})
	}

	for _, id := range ids {
		qty := required[id]
		res := tx.WithContext(ctx).Exec(`
			UPDATE filaments
			SET weight_g = weight_g - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND id = ? AND weight_g >= ?
		`, qty, tenantID, id, qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "debit filament stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("filament %s balance changed during debit", id))
		}

		movement := &models.FilamentMovement{
			ID:         uuid.New(),
			TenantID:   tenantID,
			FilamentID: id,
			Type:       enums.MovementTypeConsumption,
			QuantityG:  qty.Neg(),
			Reason:     reason,
		}
		if err := tx.WithContext(ctx).Create(movement).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record consumption movement")
		}
	}
	return nil
}
