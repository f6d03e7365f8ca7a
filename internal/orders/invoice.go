package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/internal/dbkit"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/pkg/common"
)

// deriveInvoice creates the order's invoice inside the completing
// transaction, at most once. The existence check runs under the order row
// lock already held by the caller, and the unique index on
// invoice.order_id backs it up against races. Returns the existing invoice
// unchanged when one is already present.
//
// total = subtotal - discount + tax + shipping, with
// tax = round(taxBase * rate) half-up to the nearest currency unit.
func deriveInvoice(tx *gorm.DB, order *domain.Order, taxRate decimal.Decimal, defaultUnit string) (*domain.Invoice, error) {
	var existing domain.Invoice
	err := dbkit.ForUpdate(tx).
		Where("order_id = ?", order.ID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var items []domain.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	taxBase := subtotal.Sub(order.Discount)
	tax := taxBase.Mul(taxRate).Round(0)
	total := subtotal.Sub(order.Discount).Add(tax).Add(order.ShippingFee)

	status := domain.InvoiceStatusPending
	if order.PaymentStatus == domain.PaymentStatusPaid {
		status = domain.InvoiceStatusPaid
	}

	invoice := &domain.Invoice{
		ID:          common.UUIDint64(),
		OrderID:     order.ID,
		Status:      status,
		Subtotal:    subtotal,
		Discount:    order.Discount,
		Tax:         tax,
		ShippingFee: order.ShippingFee,
		Total:       total,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for _, item := range items {
		var product domain.Product
		name := ""
		unit := defaultUnit
		err := tx.First(&product, item.ProductID).Error
		switch {
		case err == nil:
			name = product.Name
			if product.Unit != "" {
				unit = product.Unit
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ID:          common.UUIDint64(),
			InvoiceID:   invoice.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Unit:        unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			CreatedAt:   time.Now(),
		})
	}

	if err := tx.Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}
