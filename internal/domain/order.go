package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values. Completed and Cancelled are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipping  = "shipping"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment methods.
const (
	PaymentMethodCOD = "cod"
	PaymentMethodQR  = "qr"
)

// Payment status values carried on the order by the payment collaborator.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// OrderStatuses is the known status set for transition validation.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipping,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Order a customer order created by the checkout collaborator. The
// fulfilment core owns its status lifecycle and derives its invoice.
type Order struct {
	ID            int64           `json:"id,string" gorm:"primaryKey"`
	CustomerID    int64           `gorm:"index" json:"customer_id,string" form:"customer_id"`
	Status        string          `gorm:"index;size:16" json:"status" form:"status"`
	PaymentMethod string          `gorm:"size:16" json:"payment_method" form:"payment_method"`
	PaymentStatus string          `gorm:"size:16" json:"payment_status" form:"payment_status"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(18,2)" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:numeric(18,2)" json:"discount"`
	ShippingFee   decimal.Decimal `gorm:"type:numeric(18,2)" json:"shipping_fee"`
	Vat           decimal.Decimal `gorm:"type:numeric(18,2)" json:"vat"`
	Total         decimal.Decimal `gorm:"type:numeric(18,2)" json:"total"`
	Address       string          `gorm:"size:512" json:"address" form:"address"`
	Remark        string          `json:"remark" form:"remark"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// IsTerminalOrderStatus reports whether status permits no further transitions.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// IsKnownOrderStatus reports membership in the known status set.
func IsKnownOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ID        int64           `json:"id,string" gorm:"primaryKey"`
	OrderID   int64           `gorm:"index" json:"order_id,string"`
	ProductID int64           `gorm:"index" json:"product_id,string" form:"product_id"`
	Quantity  int             `json:"quantity" form:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2)" json:"unit_price" form:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_item"
}
