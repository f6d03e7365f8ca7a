package inventory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/retailworks/opsledger/internal/dbkit"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/pkg/common"
)

// StockRepository handles database operations for stock records
type StockRepository interface {
	// GetByProduct retrieves the stock record for a product, nil when absent
	GetByProduct(ctx context.Context, productID int64) (*domain.StockRecord, error)

	// ListActive retrieves all enabled stock records
	ListActive(ctx context.Context) ([]*domain.StockRecord, error)

	// List retrieves stock records with pagination
	List(ctx context.Context, page, pageSize int) ([]*domain.StockRecord, int64, error)
}

// GormStockRepository is the GORM implementation of StockRepository
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GORM-based repository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) GetByProduct(ctx context.Context, productID int64) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormStockRepository) ListActive(ctx context.Context) ([]*domain.StockRecord, error) {
	var recs []*domain.StockRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", common.ENABLED).
		Order("product_id ASC").
		Find(&recs).Error
	return recs, err
}

func (r *GormStockRepository) List(ctx context.Context, page, pageSize int) ([]*domain.StockRecord, int64, error) {
	var recs []*domain.StockRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.StockRecord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("product_id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&recs).Error

	return recs, total, err
}

// lockStockRecord loads the stock row for a product under FOR UPDATE so that
// concurrent confirmations touching the same product serialize. Returns
// gorm.ErrRecordNotFound when the product has no stock row yet.
func lockStockRecord(tx *gorm.DB, productID int64) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := dbkit.ForUpdate(tx).
		Where("product_id = ?", productID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// createStockRecord inserts a fresh zero-quantity stock row for a product.
func createStockRecord(tx *gorm.DB, productID int64) (*domain.StockRecord, error) {
	rec := &domain.StockRecord{
		ID:        common.UUIDint64(),
		ProductID: productID,
		Quantity:  0,
		Status:    common.ENABLED,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := tx.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}
