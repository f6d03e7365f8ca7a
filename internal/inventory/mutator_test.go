package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/retailworks/opsledger/internal/domain"
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

func seedStock(t *testing.T, db *gorm.DB, productID int64, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&domain.StockRecord{
		ID:        common.UUIDint64(),
		ProductID: productID,
		Quantity:  qty,
		Status:    common.ENABLED,
	}).Error)
}

func stockOf(t *testing.T, db *gorm.DB, productID int64) int {
	t.Helper()
	var rec domain.StockRecord
	require.NoError(t, db.Where("product_id = ?", productID).First(&rec).Error)
	return rec.Quantity
}

func TestAggregateFoldsDuplicateProducts(t *testing.T) {
	adjs := Aggregate([]Adjustment{
		{ProductID: 2, Delta: -1},
		{ProductID: 1, Delta: 3},
		{ProductID: 2, Delta: -2},
		{ProductID: 1, Delta: 4},
	})

	require.Len(t, adjs, 2)
	assert.Equal(t, Adjustment{ProductID: 1, Delta: 7}, adjs[0])
	assert.Equal(t, Adjustment{ProductID: 2, Delta: -3}, adjs[1])
}

func TestApplyIncrementCreatesMissingRecord(t *testing.T) {
	db := newTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		applied, err := Apply(tx, []Adjustment{{ProductID: 42, Delta: 5}}, true)
		require.NoError(t, err)
		require.Len(t, applied, 1)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 5, stockOf(t, db, 42))
}

func TestApplyDecrementInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 1, 10)
	seedStock(t, db, 2, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Apply(tx, []Adjustment{
			{ProductID: 1, Delta: -3},
			{ProductID: 2, Delta: -2},
		}, false)
		return err
	})

	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))
	// no partial application: product 1 untouched as well
	assert.Equal(t, 10, stockOf(t, db, 1))
	assert.Equal(t, 1, stockOf(t, db, 2))
}

func TestApplyDecrementAgainstMissingRecord(t *testing.T) {
	db := newTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Apply(tx, []Adjustment{{ProductID: 7, Delta: -1}}, false)
		return err
	})

	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))
}

func TestApplyAggregatedDecrementAcrossDuplicateLines(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 5, 4)

	// two lines of 3 aggregate to 6 against on-hand 4
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Apply(tx, []Adjustment{
			{ProductID: 5, Delta: -3},
			{ProductID: 5, Delta: -3},
		}, false)
		return err
	})

	require.Error(t, err)
	assert.Equal(t, 4, stockOf(t, db, 5))
}

func TestStockRepositoryListActive(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 1, 3)
	seedStock(t, db, 2, 0)
	require.NoError(t, db.Create(&domain.StockRecord{
		ID:        common.UUIDint64(),
		ProductID: 3,
		Quantity:  9,
		Status:    common.DISABLED,
	}).Error)

	repo := NewGormStockRepository(db)
	recs, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].ProductID)
	assert.Equal(t, int64(2), recs[1].ProductID)
}
