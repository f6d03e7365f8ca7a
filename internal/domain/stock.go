package domain

import "time"

// StockRecord holds the authoritative current on-hand quantity for one
// product. Exactly one row per product (unique index); updated in place by
// slip confirmation under a row lock. Quantity never goes negative.
type StockRecord struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	ProductID int64     `gorm:"uniqueIndex" json:"product_id,string" form:"product_id"`
	Quantity  int       `json:"quantity" form:"quantity"`
	Status    string    `json:"status" form:"status"` // enabled/disabled
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (StockRecord) TableName() string {
	return "stock_record"
}

// StockSnapshot append-only point-in-time on-hand record per product,
// written by the reporting job, never by the workflow transactions.
type StockSnapshot struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	ProductID  int64     `gorm:"index" json:"product_id,string"`
	Quantity   int       `json:"quantity"`
	SnapshotAt time.Time `gorm:"index" json:"snapshot_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName Specify table name
func (StockSnapshot) TableName() string {
	return "stock_snapshot"
}
