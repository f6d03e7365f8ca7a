package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/retailworks/opsledger/config"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/pkg/common"
)

var (
	testRoles   = config.RolesConfig{Customer: "customer", Staff: "staff", Admin: "admin"}
	testBilling = config.BillingConfig{TaxRate: 0.10, DefaultUnit: "pcs"}
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

func newService(db *gorm.DB) *Service {
	return NewService(db, testRoles, testBilling, nil)
}

// recordingNotifier captures published topics for fan-out assertions.
type recordingNotifier struct {
	topics []string
}

func (r *recordingNotifier) Publish(topic string, payload interface{}) {
	r.topics = append(r.topics, topic)
}

func (r *recordingNotifier) PublishToRole(role, topic string, payload interface{}) {
	r.topics = append(r.topics, fmt.Sprintf("role.%s.%s", role, topic))
}

func (r *recordingNotifier) PublishToUser(userID int64, topic string, payload interface{}) {
	r.topics = append(r.topics, fmt.Sprintf("user.%d.%s", userID, topic))
}

type orderSeed struct {
	id          int64
	customerID  int64
	status      string
	method      string
	payStatus   string
	discount    int64
	shippingFee int64
	items       []domain.OrderItem
}

func seedOrder(t *testing.T, db *gorm.DB, s orderSeed) {
	t.Helper()
	order := &domain.Order{
		ID:            s.id,
		CustomerID:    s.customerID,
		Status:        s.status,
		PaymentMethod: s.method,
		PaymentStatus: s.payStatus,
		Discount:      decimal.NewFromInt(s.discount),
		ShippingFee:   decimal.NewFromInt(s.shippingFee),
	}
	require.NoError(t, db.Create(order).Error)
	for i := range s.items {
		s.items[i].ID = common.UUIDint64()
		s.items[i].OrderID = s.id
		require.NoError(t, db.Create(&s.items[i]).Error)
	}
}

func invoiceCount(t *testing.T, db *gorm.DB, orderID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Invoice{}).Where("order_id = ?", orderID).Count(&n).Error)
	return n
}

func TestSetStatusValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	err := svc.SetStatus(ctx, 1, "")
	assert.True(t, domain.IsValidation(err))

	err = svc.SetStatus(ctx, 1, "archived")
	assert.True(t, domain.IsValidation(err))

	err = svc.SetStatus(ctx, 999, domain.OrderStatusPaid)
	assert.True(t, domain.IsNotFound(err))
}

func TestSetStatusQROrderCannotBeForcedPaid(t *testing.T) {
	// QR payment is confirmed by the payment-verification path, not here
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodQR, payStatus: domain.PaymentStatusUnpaid})
	svc := newService(db)

	err := svc.SetStatus(context.Background(), 1, domain.OrderStatusPaid)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))

	var order domain.Order
	require.NoError(t, db.First(&order, 1).Error)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestSetStatusCODMustBePaidBeforeCompletion(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid,
		discount: 50, shippingFee: 20,
		items: []domain.OrderItem{
			{ProductID: 1, Quantity: 3, UnitPrice: decimal.NewFromInt(100)},
		}})
	svc := newService(db)
	ctx := context.Background()

	err := svc.SetStatus(ctx, 1, domain.OrderStatusCompleted)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))
	assert.Contains(t, err.Error(), "paid")

	require.NoError(t, svc.SetStatus(ctx, 1, domain.OrderStatusPaid))
	require.NoError(t, svc.SetStatus(ctx, 1, domain.OrderStatusCompleted))

	assert.Equal(t, int64(1), invoiceCount(t, db, 1))

	var invoice domain.Invoice
	require.NoError(t, db.Preload("Items").Where("order_id = ?", 1).First(&invoice).Error)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(300)), "subtotal %s", invoice.Subtotal)
	assert.True(t, invoice.Tax.Equal(decimal.NewFromInt(25)), "tax %s", invoice.Tax)
	// total = subtotal - discount + tax + shipping = 300 - 50 + 25 + 20
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(295)), "total %s", invoice.Total)
	assert.Equal(t, domain.InvoiceStatusPaid, invoice.Status) // cash collected at Paid transition
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, "pcs", invoice.Items[0].Unit)
	assert.True(t, invoice.Items[0].LineTotal.Equal(decimal.NewFromInt(300)))
}

func TestSetStatusCODShippingDetourCannotComplete(t *testing.T) {
	// moving an uncollected COD order through Shipping must not unlock
	// completion; payment_status is the proof of payment, not the status path
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid,
		items: []domain.OrderItem{
			{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
		}})
	svc := newService(db)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, 1, domain.OrderStatusShipping))

	err := svc.SetStatus(ctx, 1, domain.OrderStatusCompleted)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))
	assert.Contains(t, err.Error(), "paid")

	var order domain.Order
	require.NoError(t, db.First(&order, 1).Error)
	assert.Equal(t, domain.OrderStatusShipping, order.Status)
	assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, int64(0), invoiceCount(t, db, 1))
}

func TestSetStatusEmitsEvents(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid})
	rec := &recordingNotifier{}
	svc := NewService(db, testRoles, testBilling, rec)

	require.NoError(t, svc.SetStatus(context.Background(), 1, domain.OrderStatusPaid))

	assert.Equal(t, []string{
		"order.status.changed",
		"role.staff.order.status.changed",
		"role.admin.order.status.changed",
		"user.10.order.status.changed",
	}, rec.topics)
}

func TestSetStatusRejectedTransitionEmitsNothing(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusCompleted,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusPaid})
	rec := &recordingNotifier{}
	svc := NewService(db, testRoles, testBilling, rec)

	require.Error(t, svc.SetStatus(context.Background(), 1, domain.OrderStatusShipping))
	assert.Empty(t, rec.topics)
}

func TestSetStatusTerminalOrderFrozen(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusCompleted,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusPaid})
	seedOrder(t, db, orderSeed{id: 2, customerID: 10, status: domain.OrderStatusCancelled,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid})
	svc := newService(db)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		err := svc.SetStatus(ctx, id, domain.OrderStatusShipping)
		require.Error(t, err)
		assert.True(t, domain.IsInvalidState(err))
	}

	// completing an already-completed order must not create a second invoice
	err := svc.SetStatus(ctx, 1, domain.OrderStatusCompleted)
	require.Error(t, err)
	assert.Equal(t, int64(0), invoiceCount(t, db, 1))
}

func TestSetStatusCompletionIsIdempotentOnInvoice(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPaid,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusPaid,
		items: []domain.OrderItem{
			{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
		}})
	svc := newService(db)
	ctx := context.Background()

	// an invoice already exists before completion: derivation skips creation
	require.NoError(t, db.Create(&domain.Invoice{
		ID:      common.UUIDint64(),
		OrderID: 1,
		Status:  domain.InvoiceStatusPending,
		Total:   decimal.NewFromInt(100),
	}).Error)

	require.NoError(t, svc.SetStatus(ctx, 1, domain.OrderStatusCompleted))
	assert.Equal(t, int64(1), invoiceCount(t, db, 1))
}

func TestSetStatusBlockedByUnconfirmedDispatch(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid})
	require.NoError(t, db.Create(&domain.DispatchSlip{
		ID:      common.UUIDint64(),
		RefNo:   "ORD-1",
		Kind:    domain.DispatchKindRetail,
		OrderID: 1,
		Status:  domain.SlipStatusDraft,
	}).Error)
	svc := newService(db)
	ctx := context.Background()

	err := svc.SetStatus(ctx, 1, domain.OrderStatusPaid)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))
	assert.Contains(t, err.Error(), "warehouse")

	// cancellation is never blocked by warehouse state
	require.NoError(t, svc.SetStatus(ctx, 1, domain.OrderStatusCancelled))
}

func TestDeleteOrderCascades(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusCancelled,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid,
		items: []domain.OrderItem{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		}})
	slipID := common.UUIDint64()
	require.NoError(t, db.Create(&domain.DispatchSlip{
		ID:      slipID,
		RefNo:   "ORD-1",
		Kind:    domain.DispatchKindRetail,
		OrderID: 1,
		Status:  domain.SlipStatusDraft,
	}).Error)
	require.NoError(t, db.Create(&domain.DispatchSlipItem{
		ID:        common.UUIDint64(),
		SlipID:    slipID,
		ProductID: 1,
		Quantity:  2,
	}).Error)
	svc := newService(db)

	require.NoError(t, svc.Delete(context.Background(), 1))

	var n int64
	db.Model(&domain.Order{}).Where("id = ?", 1).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.OrderItem{}).Where("order_id = ?", 1).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.DispatchSlip{}).Where("id = ?", slipID).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.DispatchSlipItem{}).Where("slip_id = ?", slipID).Count(&n)
	assert.Zero(t, n)
}

func TestDeleteOrderEmitsEvents(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusCancelled,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid})
	rec := &recordingNotifier{}
	svc := NewService(db, testRoles, testBilling, rec)

	require.NoError(t, svc.Delete(context.Background(), 1))

	assert.Equal(t, []string{
		"role.staff.order.deleted",
		"role.admin.order.deleted",
	}, rec.topics)
}

func TestSetStatusCompletionPropagatesProductLookupFailure(t *testing.T) {
	// a failing product read during invoice derivation must abort the
	// transition, not degrade the invoice line
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPaid,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusPaid,
		items: []domain.OrderItem{
			{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
		}})
	require.NoError(t, db.Migrator().DropTable(&domain.Product{}))
	svc := newService(db)

	err := svc.SetStatus(context.Background(), 1, domain.OrderStatusCompleted)
	require.Error(t, err)

	var order domain.Order
	require.NoError(t, db.First(&order, 1).Error)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, int64(0), invoiceCount(t, db, 1))
}

func TestDeleteOrderGuards(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid})
	seedOrder(t, db, orderSeed{id: 2, customerID: 10, status: domain.OrderStatusCancelled,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid})
	require.NoError(t, db.Create(&domain.Invoice{
		ID:      common.UUIDint64(),
		OrderID: 2,
		Status:  domain.InvoiceStatusPending,
	}).Error)
	svc := newService(db)
	ctx := context.Background()

	err := svc.Delete(ctx, 1)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidState(err)) // not cancelled

	err = svc.Delete(ctx, 2)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err)) // invoice must be preserved

	err = svc.Delete(ctx, 3)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestGetDetailOwnership(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, orderSeed{id: 1, customerID: 10, status: domain.OrderStatusPending,
		method: domain.PaymentMethodCOD, payStatus: domain.PaymentStatusUnpaid,
		items: []domain.OrderItem{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		}})
	require.NoError(t, db.Create(&domain.SysUser{ID: 20, Username: "staffer", Role: "staff"}).Error)
	require.NoError(t, db.Create(&domain.SysUser{ID: 30, Username: "other", Role: "customer"}).Error)
	svc := newService(db)
	ctx := context.Background()

	// owner may read
	detail, err := svc.GetDetail(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, detail.Order.Items, 1)
	assert.Nil(t, detail.Invoice)

	// staff may read
	_, err = svc.GetDetail(ctx, 1, 20)
	require.NoError(t, err)

	// another customer may not
	_, err = svc.GetDetail(ctx, 1, 30)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err))
}
