package machines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// Service exposes machine management. Machine hourly costs feed quote
// recalculation, so edits here change future recalculations only; stored
// quote prices keep their last computed values.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Machine, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Machine, error)
	Create(ctx context.Context, input MachineInput) (*models.Machine, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, input MachineInput) (*models.Machine, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// MachineInput carries the editable machine fields.
type MachineInput struct {
	TenantID     uuid.UUID
	Name         string
	Model        string
	Manufacturer string
	SerialNumber string
	CostPerHour  decimal.Decimal
	Notes        string
}

type service struct {
	repo Repository
}

// NewService wires a machine service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Machine, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	return s.repo.List(ctx, tenantID, search)
}

func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Machine, error) {
	machine, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine")
	}
	return machine, nil
}

func (s *service) Create(ctx context.Context, input MachineInput) (*models.Machine, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	machine := &models.Machine{
		ID:           uuid.New(),
		TenantID:     input.TenantID,
		Name:         input.Name,
		Model:        input.Model,
		Manufacturer: input.Manufacturer,
		SerialNumber: input.SerialNumber,
		CostPerHour:  input.CostPerHour,
		Notes:        input.Notes,
	}
	if err := s.repo.Create(ctx, machine); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create machine")
	}
	return machine, nil
}

func (s *service) Update(ctx context.Context, tenantID, id uuid.UUID, input MachineInput) (*models.Machine, error) {
	machine, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	input.TenantID = tenantID
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	machine.Name = input.Name
	machine.Model = input.Model
	machine.Manufacturer = input.Manufacturer
	machine.SerialNumber = input.SerialNumber
	machine.CostPerHour = input.CostPerHour
	machine.Notes = input.Notes
	machine.UpdatedAt = &now

	if err := s.repo.Update(ctx, machine); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update machine")
	}
	return machine, nil
}

func (s *service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete machine")
	}
	return nil
}

func validateInput(input MachineInput) error {
	if input.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.CostPerHour.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost per hour cannot be negative")
	}
	return nil
}
