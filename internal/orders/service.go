package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/config"
	"github.com/retailworks/opsledger/internal/dbkit"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/internal/notify"
	"github.com/retailworks/opsledger/internal/slips"
	"github.com/retailworks/opsledger/pkg/common"
)

// Service drives the order status machine, invoice derivation and order
// deletion. Orders themselves are created by the checkout collaborator.
type Service struct {
	db       *gorm.DB
	roles    config.RolesConfig
	billing  config.BillingConfig
	notifier notify.Notifier
}

func NewService(db *gorm.DB, roles config.RolesConfig, billing config.BillingConfig, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Service{db: db, roles: roles, billing: billing, notifier: notifier}
}

// OrderDetail is the ownership-checked read model for one order.
type OrderDetail struct {
	Order         *domain.Order         `json:"order"`
	Invoice       *domain.Invoice       `json:"invoice,omitempty"`
	DispatchSlips []domain.DispatchSlip `json:"dispatch_slips,omitempty"`
}

// SetStatus applies a guarded order status transition. On entry to
// completed, the invoice is derived exactly once. Every successful
// transition fans out a status-changed event after commit.
func (s *Service) SetStatus(ctx context.Context, orderID int64, newStatus string) error {
	if newStatus == "" {
		return domain.ErrValidation("status is required")
	}
	if !domain.IsKnownOrderStatus(newStatus) {
		return domain.ErrValidation("unknown order status %q", newStatus)
	}

	var updated *domain.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		err := dbkit.ForUpdate(tx).First(&order, orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound("order", orderID)
		}
		if err != nil {
			return err
		}

		if domain.IsTerminalOrderStatus(order.Status) {
			return domain.ErrInvalidState("order", "terminal order cannot change status (current %s)", order.Status)
		}

		// Cancellation is never blocked by payment or warehouse state.
		if newStatus != domain.OrderStatusCancelled {
			if order.PaymentMethod == domain.PaymentMethodQR && newStatus == domain.OrderStatusPaid {
				return domain.ErrBusinessRule(
					"QR orders are marked paid by payment verification, not by status edit")
			}
			// Cash collection is recorded on payment_status, not inferred
			// from the status history, so a Pending->Shipping detour cannot
			// complete an uncollected order.
			if order.PaymentMethod == domain.PaymentMethodCOD && newStatus == domain.OrderStatusCompleted {
				if order.PaymentStatus != domain.PaymentStatusPaid {
					return domain.ErrBusinessRule("COD order must be paid before completion")
				}
			}

			var unconfirmed int64
			err = tx.Model(&domain.DispatchSlip{}).
				Where("order_id = ? AND status = ?", order.ID, domain.SlipStatusDraft).
				Count(&unconfirmed).Error
			if err != nil {
				return err
			}
			if unconfirmed > 0 {
				return domain.ErrBusinessRule("warehouse has not confirmed dispatch yet")
			}
		}

		updates := map[string]interface{}{
			"status":     newStatus,
			"updated_at": time.Now(),
		}
		// A COD order marked paid by staff has its cash collection confirmed.
		if newStatus == domain.OrderStatusPaid && order.PaymentMethod == domain.PaymentMethodCOD {
			updates["payment_status"] = domain.PaymentStatusPaid
			order.PaymentStatus = domain.PaymentStatusPaid
		}
		if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		order.Status = newStatus

		if newStatus == domain.OrderStatusCompleted {
			if _, err := deriveInvoice(tx, &order, decimal.NewFromFloat(s.billing.TaxRate), s.billing.DefaultUnit); err != nil {
				return err
			}
		}

		writeOprLog(tx, "order_status", "order %d status -> %s", order.ID, newStatus)

		updated = &order
		return nil
	})
	if err != nil {
		return err
	}

	s.fanOutStatusChange(updated)

	zap.L().Info("order status changed",
		zap.Int64("order_id", updated.ID),
		zap.String("status", updated.Status))
	return nil
}

// Delete removes a cancelled order without financial records, cascading its
// items and any linked draft dispatch slips. Orders that already produced
// an invoice are permanent.
func (s *Service) Delete(ctx context.Context, orderID int64) error {
	var deleted *domain.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		err := dbkit.ForUpdate(tx).First(&order, orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound("order", orderID)
		}
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusCancelled {
			return domain.ErrInvalidState("order", "only cancelled orders can be deleted (current %s)", order.Status)
		}

		var invoices int64
		if err := tx.Model(&domain.Invoice{}).Where("order_id = ?", order.ID).Count(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return domain.ErrBusinessRule("order %d has an invoice and must be preserved", order.ID)
		}

		if err := slips.DeleteDraftsForOrder(tx, order.ID); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Order{}, order.ID).Error; err != nil {
			return err
		}

		writeOprLog(tx, "order_delete", "order %d deleted", order.ID)

		deleted = &order
		return nil
	})
	if err != nil {
		return err
	}

	payload := map[string]interface{}{"order_id": deleted.ID}
	s.notifier.PublishToRole(s.roles.Staff, notify.TopicOrderDeleted, payload)
	s.notifier.PublishToRole(s.roles.Admin, notify.TopicOrderDeleted, payload)

	zap.L().Info("order deleted", zap.Int64("order_id", deleted.ID))
	return nil
}

// GetDetail returns an order with items, invoice and linked dispatch slips.
// The requester must own the order or hold the staff or admin role.
func (s *Service) GetDetail(ctx context.Context, orderID, requesterUserID int64) (*OrderDetail, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound("order", orderID)
	}
	if err != nil {
		return nil, err
	}

	if order.CustomerID != requesterUserID {
		var requester domain.SysUser
		err := s.db.WithContext(ctx).First(&requester, requesterUserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound("user", requesterUserID)
		}
		if err != nil {
			return nil, err
		}
		if requester.Role != s.roles.Staff && requester.Role != s.roles.Admin {
			return nil, domain.ErrBusinessRule("user %d may not view order %d", requesterUserID, orderID)
		}
	}

	detail := &OrderDetail{Order: &order}

	var invoice domain.Invoice
	err = s.db.WithContext(ctx).Preload("Items").Where("order_id = ?", order.ID).First(&invoice).Error
	if err == nil {
		detail.Invoice = &invoice
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Where("order_id = ?", order.ID).Find(&detail.DispatchSlips).Error; err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *Service) fanOutStatusChange(order *domain.Order) {
	payload := map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	}
	s.notifier.Publish(notify.TopicOrderStatusChanged, payload)
	s.notifier.PublishToRole(s.roles.Staff, notify.TopicOrderStatusChanged, payload)
	s.notifier.PublishToRole(s.roles.Admin, notify.TopicOrderStatusChanged, payload)
	s.notifier.PublishToUser(order.CustomerID, notify.TopicOrderStatusChanged, payload)
}

// writeOprLog records an audit row. Failures are logged and swallowed so
// audit trouble never aborts the workflow transaction's business effect.
func writeOprLog(tx *gorm.DB, action, format string, args ...interface{}) {
	log := &domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   "system",
		OptAction: action,
		OptDesc:   fmt.Sprintf(format, args...),
		OptTime:   time.Now(),
	}
	if err := tx.Create(log).Error; err != nil {
		zap.L().Warn("failed to write operator log", zap.Error(err))
	}
}
