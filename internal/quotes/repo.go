package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

// Repository manages persistence for quotes and their item trees.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.Quote) error
	Update(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error)
	List(ctx context.Context, tenantID uuid.UUID, status enums.QuoteStatus) ([]models.Quote, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []models.QuoteItem) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to enums.QuoteStatus) (bool, error)
	NextSeq(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountOrders(ctx context.Context, tenantID, quoteID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a quote repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *repository) Update(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("Items").
		Save(quote).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Materials").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, status enums.QuoteStatus) ([]models.Quote, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var quotes []models.Quote
	if err := query.Order("created_at DESC").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Quote{}).Error
}

// ReplaceItems swaps the full item tree of a quote. Must run inside the
// caller's transaction.
func (r *repository) ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []models.QuoteItem) error {
	var itemIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.QuoteItem{}).
		Where("quote_id = ?", quoteID).
		Pluck("id", &itemIDs).Error; err != nil {
		return err
	}
	if len(itemIDs) > 0 {
		if err := r.db.WithContext(ctx).
			Where("quote_item_id IN ?", itemIDs).
			Delete(&models.QuoteMaterial{}).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).
			Where("quote_id = ?", quoteID).
			Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// UpdateStatus moves the quote from one status to another with a guard
// on the source status. Returns false when the guard misses, meaning a
// concurrent writer got there first.
func (r *repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to enums.QuoteStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NextSeq reserves the next quote number for a tenant. Must run inside
// the caller's transaction so concurrent creates cannot both observe the
// same maximum.
func (r *repository) NextSeq(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(quote_seq), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *repository) CountOrders(ctx context.Context, tenantID, quoteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("tenant_id = ? AND quote_id = ?", tenantID, quoteID).
		Count(&count).Error
	return count, err
}
