package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice status values.
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
)

// Invoice derived financial record, created at most once per order (unique
// index on OrderID). Line items are snapshots taken at creation time; the
// invoice never re-reads order or product state afterwards. Only the status
// field may change after creation.
type Invoice struct {
	ID          int64           `json:"id,string" gorm:"primaryKey"`
	OrderID     int64           `gorm:"uniqueIndex" json:"order_id,string"`
	Status      string          `gorm:"size:16" json:"status"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(18,2)" json:"subtotal"`
	Discount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"discount"`
	Tax         decimal.Decimal `gorm:"type:numeric(18,2)" json:"tax"`
	ShippingFee decimal.Decimal `gorm:"type:numeric(18,2)" json:"shipping_fee"`
	Total       decimal.Decimal `gorm:"type:numeric(18,2)" json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// TableName Specify table name
func (Invoice) TableName() string {
	return "invoice"
}

type InvoiceItem struct {
	ID          int64           `json:"id,string" gorm:"primaryKey"`
	InvoiceID   int64           `gorm:"index" json:"invoice_id,string"`
	ProductID   int64           `json:"product_id,string"`
	ProductName string          `json:"product_name"`
	Unit        string          `gorm:"size:32" json:"unit"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,2)" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,2)" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName Specify table name
func (InvoiceItem) TableName() string {
	return "invoice_item"
}
