package reporting

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/internal/inventory"
	"github.com/retailworks/opsledger/pkg/common"
)

// SnapshotWriter appends point-in-time on-hand records for reporting. It
// runs outside the workflow transactions; the live StockRecord rows stay
// the single source of truth.
type SnapshotWriter struct {
	db     *gorm.DB
	stocks inventory.StockRepository
}

func NewSnapshotWriter(db *gorm.DB, stocks inventory.StockRepository) *SnapshotWriter {
	return &SnapshotWriter{db: db, stocks: stocks}
}

// WriteSnapshot records one row per active stock record, stamped with the
// same snapshot time.
func (w *SnapshotWriter) WriteSnapshot(ctx context.Context) (int, error) {
	recs, err := w.stocks.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]domain.StockSnapshot, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, domain.StockSnapshot{
			ID:         common.UUIDint64(),
			ProductID:  rec.ProductID,
			Quantity:   rec.Quantity,
			SnapshotAt: now,
			CreatedAt:  now,
		})
	}

	if err := w.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, err
	}

	zap.L().Info("stock snapshot written",
		zap.Int("products", len(rows)),
		zap.Time("snapshot_at", now))
	return len(rows), nil
}

// PurgeOlderThan drops snapshot rows past the retention window.
func (w *SnapshotWriter) PurgeOlderThan(ctx context.Context, days int) error {
	return w.db.WithContext(ctx).
		Where("snapshot_at < ?", time.Now().Add(-time.Hour*24*time.Duration(days))).
		Delete(&domain.StockSnapshot{}).Error
}
