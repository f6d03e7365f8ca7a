package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/internal/inventory"
	"github.com/retailworks/opsledger/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedStock(t *testing.T, db *gorm.DB, productID int64, qty int, status string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.StockRecord{
		ID:        common.UUIDint64(),
		ProductID: productID,
		Quantity:  qty,
		Status:    status,
	}).Error)
}

func TestWriteSnapshotOneRowPerActiveRecord(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 1, 5, common.ENABLED)
	seedStock(t, db, 2, 0, common.ENABLED)
	seedStock(t, db, 3, 7, common.DISABLED)

	w := NewSnapshotWriter(db, inventory.NewGormStockRepository(db))
	n, err := w.WriteSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var rows []domain.StockSnapshot
	require.NoError(t, db.Order("product_id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ProductID)
	assert.Equal(t, 5, rows[0].Quantity)
	assert.Equal(t, int64(2), rows[1].ProductID)
	assert.Equal(t, 0, rows[1].Quantity)
	assert.Equal(t, rows[0].SnapshotAt, rows[1].SnapshotAt)
}

func TestWriteSnapshotEmptyInventory(t *testing.T) {
	db := newTestDB(t)

	w := NewSnapshotWriter(db, inventory.NewGormStockRepository(db))
	n, err := w.WriteSnapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriteSnapshotAppendsHistory(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 1, 5, common.ENABLED)

	w := NewSnapshotWriter(db, inventory.NewGormStockRepository(db))
	ctx := context.Background()

	_, err := w.WriteSnapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.StockRecord{}).
		Where("product_id = ?", 1).
		Update("quantity", 9).Error)

	_, err = w.WriteSnapshot(ctx)
	require.NoError(t, err)

	var rows []domain.StockSnapshot
	require.NoError(t, db.Order("snapshot_at ASC, id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].Quantity)
	assert.Equal(t, 9, rows[1].Quantity)
}

func TestPurgeOlderThan(t *testing.T) {
	db := newTestDB(t)

	old := domain.StockSnapshot{
		ID:         common.UUIDint64(),
		ProductID:  1,
		Quantity:   3,
		SnapshotAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := domain.StockSnapshot{
		ID:         common.UUIDint64(),
		ProductID:  1,
		Quantity:   4,
		SnapshotAt: time.Now(),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	w := NewSnapshotWriter(db, inventory.NewGormStockRepository(db))
	require.NoError(t, w.PurgeOlderThan(context.Background(), 1))

	var rows []domain.StockSnapshot
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh.ID, rows[0].ID)
}
