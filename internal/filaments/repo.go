package filaments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
)

// Repository manages persistence for filament rolls and their movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, filament *models.Filament) error
	Update(ctx context.Context, filament *models.Filament) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Filament, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Filament, error)
	List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Filament, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	CreateMovement(ctx context.Context, movement *models.FilamentMovement) error
	ListMovements(ctx context.Context, tenantID, filamentID uuid.UUID) ([]models.FilamentMovement, error)
	HasMovements(ctx context.Context, tenantID, filamentID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a filament repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, filament *models.Filament) error {
	return r.db.WithContext(ctx).Create(filament).Error
}

func (r *repository) Update(ctx context.Context, filament *models.Filament) error {
	return r.db.WithContext(ctx).Save(filament).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Filament, error) {
	var filament models.Filament
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&filament).Error; err != nil {
		return nil, err
	}
	return &filament, nil
}

func (r *repository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Filament, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var filaments []models.Filament
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&filaments).Error; err != nil {
		return nil, err
	}
	return filaments, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, search string) ([]models.Filament, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(material) LIKE ? OR LOWER(color) LIKE ? OR LOWER(brand) LIKE ?",
			like, like, like,
		)
	}

	var filaments []models.Filament
	if err := query.Order("created_at DESC").Find(&filaments).Error; err != nil {
		return nil, err
	}
	return filaments, nil
}

func (r *repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Filament{}).Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.FilamentMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, tenantID, filamentID uuid.UUID) ([]models.FilamentMovement, error) {
	var movements []models.FilamentMovement
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND filament_id = ?", tenantID, filamentID).
		Order("created_at DESC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) HasMovements(ctx context.Context, tenantID, filamentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FilamentMovement{}).
		Where("tenant_id = ? AND filament_id = ?", tenantID, filamentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
