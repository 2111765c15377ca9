package machines

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
)

// Repository manages persistence for machines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, machine *models.Machine) error
	Update(ctx context.Context, machine *models.Machine) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Machine, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Machine, error)
	List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Machine, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a machine repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, machine *models.Machine) error {
	return r.db.WithContext(ctx).Create(machine).Error
}

func (r *repository) Update(ctx context.Context, machine *models.Machine) error {
	return r.db.WithContext(ctx).Save(machine).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Machine, error) {
	var machine models.Machine
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&machine).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *repository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Machine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var machines []models.Machine
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Machine, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(model) LIKE ? OR LOWER(manufacturer) LIKE ?", like, like, like)
	}
	var machines []models.Machine
	if err := query.Order("name ASC").Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Machine{}).Error
}
