package filaments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes filament roll management and the movement ledger.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Filament, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Filament, error)
	Create(ctx context.Context, input CreateFilamentInput) (*models.Filament, error)
	Update(ctx context.Context, input UpdateFilamentInput) (*models.Filament, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Movements(ctx context.Context, tenantID, filamentID uuid.UUID) ([]models.FilamentMovement, error)
	AdjustWeight(ctx context.Context, input AdjustWeightInput) (*models.Filament, error)
}

// CreateFilamentInput captures a new roll entering stock.
type CreateFilamentInput struct {
	TenantID  uuid.UUID
	Material  string
	Color     string
	Brand     string
	WeightG   decimal.Decimal
	CostPerKg decimal.Decimal
	Notes     string
}

// UpdateFilamentInput edits roll metadata. The weight balance is not
// editable here; it only changes through movements.
type UpdateFilamentInput struct {
	TenantID  uuid.UUID
	ID        uuid.UUID
	Material  string
	Color     string
	Brand     string
	CostPerKg decimal.Decimal
	Notes     string
	IsActive  bool
}

// AdjustWeightInput records a manual stocktake correction.
type AdjustWeightInput struct {
	TenantID   uuid.UUID
	FilamentID uuid.UUID
	NewWeightG decimal.Decimal
	Reason     string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a filament service with its repository and transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("filament repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Filament, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	return s.repo.List(ctx, tenantID, search)
}

func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Filament, error) {
	filament, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "filament not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filament")
	}
	return filament, nil
}

func (s *service) Create(ctx context.Context, input CreateFilamentInput) (*models.Filament, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.Material == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material is required")
	}
	if input.WeightG.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}
	if input.CostPerKg.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per kg cannot be negative")
	}

	filament := &models.Filament{
		ID:        uuid.New(),
		TenantID:  input.TenantID,
		Material:  input.Material,
		Color:     input.Color,
		Brand:     input.Brand,
		WeightG:   input.WeightG,
		CostPerKg: input.CostPerKg,
		Notes:     input.Notes,
		IsActive:  true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, filament); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create filament")
		}
		if input.WeightG.IsPositive() {
			movement := &models.FilamentMovement{
				ID:         uuid.New(),
				TenantID:   input.TenantID,
				FilamentID: filament.ID,
				Type:       enums.MovementTypeEntry,
				QuantityG:  input.WeightG,
				Reason:     "Initial stock",
			}
			if err := repo.CreateMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record entry movement")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filament, nil
}

func (s *service) Update(ctx context.Context, input UpdateFilamentInput) (*models.Filament, error) {
	filament, err := s.Get(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Material == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material is required")
	}
	if input.CostPerKg.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per kg cannot be negative")
	}

	now := time.Now().UTC()
	filament.Material = input.Material
	filament.Color = input.Color
	filament.Brand = input.Brand
	filament.CostPerKg = input.CostPerKg
	filament.Notes = input.Notes
	filament.IsActive = input.IsActive
	filament.UpdatedAt = &now

	if err := s.repo.Update(ctx, filament); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update filament")
	}
	return filament, nil
}

// Delete removes a roll that has never moved; rolls with ledger history
// are deactivated instead so the movement log stays coherent.
func (s *service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	filament, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	hasMovements, err := s.repo.HasMovements(ctx, tenantID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check filament movements")
	}
	if !hasMovements {
		if err := s.repo.Delete(ctx, tenantID, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete filament")
		}
		return nil
	}

	now := time.Now().UTC()
	filament.IsActive = false
	filament.UpdatedAt = &now
	if err := s.repo.Update(ctx, filament); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate filament")
	}
	return nil
}

func (s *service) Movements(ctx context.Context, tenantID, filamentID uuid.UUID) ([]models.FilamentMovement, error) {
	if _, err := s.Get(ctx, tenantID, filamentID); err != nil {
		return nil, err
	}
	movements, err := s.repo.ListMovements(ctx, tenantID, filamentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return movements, nil
}

func (s *service) AdjustWeight(ctx context.Context, input AdjustWeightInput) (*models.Filament, error) {
	if input.NewWeightG.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new weight cannot be negative")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	var updated *models.Filament
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		filament, err := repo.FindByID(ctx, input.TenantID, input.FilamentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "filament not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filament")
		}

		delta := input.NewWeightG.Sub(filament.WeightG)
		if delta.IsZero() {
			updated = filament
			return nil
		}

		movement := &models.FilamentMovement{
			ID:         uuid.New(),
			TenantID:   input.TenantID,
			FilamentID: filament.ID,
			Type:       enums.MovementTypeAdjustment,
			QuantityG:  delta,
			Reason:     input.Reason,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record adjustment movement")
		}

		// Guarded write: the balance must still be the one the delta was
		// computed from, or a concurrent debit slipped in between.
		res := tx.WithContext(ctx).Exec(`
			UPDATE filaments
			SET weight_g = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND id = ? AND weight_g = ?
		`, input.NewWeightG, input.TenantID, filament.ID, filament.WeightG)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "apply weight adjustment")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "filament balance changed during adjustment")
		}

		now := time.Now().UTC()
		filament.WeightG = input.NewWeightG
		filament.UpdatedAt = &now
		updated = filament
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
