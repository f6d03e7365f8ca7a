package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slip status values. Confirmation is a one-way transition; a confirmed
// slip's items are immutable history. Receiving slips are soft-deleted
// (cancelled) instead of removed.
const (
	SlipStatusDraft     = "draft"
	SlipStatusConfirmed = "confirmed"
	SlipStatusCancelled = "cancelled"
)

// Dispatch slip kinds.
const (
	DispatchKindRetail  = "retail"
	DispatchKindProject = "project"
)

// Slip reference number prefixes.
const (
	RefPrefixReceiving = "RCV-"
	RefPrefixRetail    = "DSP-"
	RefPrefixProject   = "PRJ-"
	RefPrefixOrder     = "ORD-"
)

// ReceivingSlip inbound goods movement. Items are mutable only while draft;
// confirmation applies the stock increase and stamps ConfirmedAt once.
type ReceivingSlip struct {
	ID          int64      `json:"id,string" gorm:"primaryKey"`
	RefNo       string     `gorm:"uniqueIndex;size:64" json:"ref_no" form:"ref_no"`
	Supplier    string     `json:"supplier" form:"supplier"`
	ReceiptDate time.Time  `json:"receipt_date" form:"receipt_date"`
	Status      string     `gorm:"index;size:16" json:"status"`
	Note        string     `gorm:"size:1024" json:"note" form:"note"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []ReceivingSlipItem `gorm:"foreignKey:SlipID" json:"items"`
}

// TableName Specify table name
func (ReceivingSlip) TableName() string {
	return "receiving_slip"
}

type ReceivingSlipItem struct {
	ID        int64           `json:"id,string" gorm:"primaryKey"`
	SlipID    int64           `gorm:"index" json:"slip_id,string"`
	ProductID int64           `gorm:"index" json:"product_id,string" form:"product_id"`
	Unit      string          `gorm:"size:32" json:"unit" form:"unit"`
	Quantity  int             `json:"quantity" form:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2)" json:"unit_price" form:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(18,2)" json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName Specify table name
func (ReceivingSlipItem) TableName() string {
	return "receiving_slip_item"
}

// DispatchSlip outbound goods movement, retail or project kind. An order
// dispatch carries an explicit OrderID foreign key, resolved at creation
// time; the ORD- reference string is display only.
type DispatchSlip struct {
	ID           int64      `json:"id,string" gorm:"primaryKey"`
	RefNo        string     `gorm:"uniqueIndex;size:64" json:"ref_no" form:"ref_no"`
	Kind         string     `gorm:"index;size:16" json:"kind"`
	CustomerID   int64      `gorm:"index" json:"customer_id,string" form:"customer_id"` // retail kind
	ProjectID    int64      `gorm:"index" json:"project_id,string" form:"project_id"`   // project kind
	OrderID      int64      `gorm:"index" json:"order_id,string" form:"order_id"`       // 0 when not order-linked
	DispatchDate time.Time  `json:"dispatch_date" form:"dispatch_date"`
	Status       string     `gorm:"index;size:16" json:"status"`
	Note         string     `gorm:"size:1024" json:"note" form:"note"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Items []DispatchSlipItem `gorm:"foreignKey:SlipID" json:"items"`
}

// TableName Specify table name
func (DispatchSlip) TableName() string {
	return "dispatch_slip"
}

type DispatchSlipItem struct {
	ID        int64           `json:"id,string" gorm:"primaryKey"`
	SlipID    int64           `gorm:"index" json:"slip_id,string"`
	ProductID int64           `gorm:"index" json:"product_id,string" form:"product_id"`
	Unit      string          `gorm:"size:32" json:"unit" form:"unit"`
	Quantity  int             `json:"quantity" form:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2)" json:"unit_price" form:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(18,2)" json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName Specify table name
func (DispatchSlipItem) TableName() string {
	return "dispatch_slip_item"
}
