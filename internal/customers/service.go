package customers

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

// Service exposes customer management.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Customer, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error)
	Create(ctx context.Context, input CustomerInput) (*models.Customer, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, input CustomerInput) (*models.Customer, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// CustomerInput carries the editable customer fields.
type CustomerInput struct {
	TenantID uuid.UUID
	Name     string
	Email    string
	Phone    string
	Address  string
	City     string
	State    string
	ZipCode  string
	Country  string
	Notes    string
}

type service struct {
	repo Repository
}

// NewService wires a customer service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Customer, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	return s.repo.List(ctx, tenantID, search)
}

func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) Create(ctx context.Context, input CustomerInput) (*models.Customer, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	customer := &models.Customer{
		ID:       uuid.New(),
		TenantID: input.TenantID,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		City:     input.City,
		State:    input.State,
		ZipCode:  input.ZipCode,
		Country:  input.Country,
		Notes:    input.Notes,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) Update(ctx context.Context, tenantID, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	now := time.Now().UTC()
	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.City = input.City
	customer.State = input.State
	customer.ZipCode = input.ZipCode
	customer.Country = input.Country
	customer.Notes = input.Notes
	customer.UpdatedAt = &now

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return customer, nil
}

// Delete refuses to remove a customer that still has quotes; the quote
// history references them.
func (s *service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	count, err := s.repo.CountQuotes(ctx, tenantID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer quotes")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "customer has quotes and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}
