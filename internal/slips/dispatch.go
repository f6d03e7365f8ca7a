package slips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/config"
	"github.com/retailworks/opsledger/internal/dbkit"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/internal/inventory"
	"github.com/retailworks/opsledger/internal/notify"
	"github.com/retailworks/opsledger/pkg/common"
)

// CreateDispatchInput carries the draft dispatch slip fields. Retail slips
// require CustomerID, project slips require ProjectID. OrderID links the
// slip to an order explicitly; the ORD- reference string is derived from it
// for display, never parsed back.
type CreateDispatchInput struct {
	Kind         string      `json:"kind"`
	CustomerID   int64       `json:"customer_id,string"`
	ProjectID    int64       `json:"project_id,string"`
	OrderID      int64       `json:"order_id,string"`
	DispatchDate string      `json:"dispatch_date"` // free-form, parsed by dateparse
	RefNo        string      `json:"ref_no"`
	Note         string      `json:"note"`
	Items        []ItemInput `json:"items"`
}

// CreateDispatchResult returns the created slip plus the count of item
// lines dropped during creation. Under the strict product policy the count
// is always zero; the field stays so API consumers can rely on it.
type CreateDispatchResult struct {
	Slip         *domain.DispatchSlip `json:"slip"`
	SkippedItems int                  `json:"skipped_items"`
}

// DispatchService handles the outbound slip workflow: draft creation,
// confirmation (the only place stock decreases, with the no-oversell
// guard), order side effects, and draft deletion.
type DispatchService struct {
	db       *gorm.DB
	roles    config.RolesConfig
	notifier notify.Notifier
}

func NewDispatchService(db *gorm.DB, roles config.RolesConfig, notifier notify.Notifier) *DispatchService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &DispatchService{db: db, roles: roles, notifier: notifier}
}

// Create validates and persists a draft dispatch slip with its items.
// Unknown product ids are rejected, the same policy as receiving slips.
func (s *DispatchService) Create(ctx context.Context, in CreateDispatchInput) (*CreateDispatchResult, error) {
	if in.Kind != domain.DispatchKindRetail && in.Kind != domain.DispatchKindProject {
		return nil, domain.ErrValidation("kind must be %q or %q", domain.DispatchKindRetail, domain.DispatchKindProject)
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrValidation("slip requires at least one item")
	}
	dispatchDate, err := parseSlipDate(in.DispatchDate, "dispatch date")
	if err != nil {
		return nil, err
	}

	slip := &domain.DispatchSlip{
		ID:           common.UUIDint64(),
		Kind:         in.Kind,
		CustomerID:   in.CustomerID,
		ProjectID:    in.ProjectID,
		OrderID:      in.OrderID,
		DispatchDate: dispatchDate,
		Status:       domain.SlipStatusDraft,
		Note:         in.Note,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch in.Kind {
		case domain.DispatchKindRetail:
			if in.CustomerID == 0 {
				return domain.ErrValidation("customer id is required for retail dispatch")
			}
			var user domain.SysUser
			err := tx.First(&user, in.CustomerID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound("customer", in.CustomerID)
			}
			if err != nil {
				return err
			}
			if user.Role != s.roles.Customer {
				return domain.ErrValidation("user %d does not hold the %s role", in.CustomerID, s.roles.Customer)
			}
		case domain.DispatchKindProject:
			if in.ProjectID == 0 {
				return domain.ErrValidation("project id is required for project dispatch")
			}
			var project domain.Project
			err := tx.First(&project, in.ProjectID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound("project", in.ProjectID)
			}
			if err != nil {
				return err
			}
		}

		refNo := strings.TrimSpace(in.RefNo)
		if in.OrderID != 0 {
			var order domain.Order
			err := tx.First(&order, in.OrderID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound("order", in.OrderID)
			}
			if err != nil {
				return err
			}
			// One dispatch slip per order, draft or confirmed.
			var linked int64
			err = tx.Model(&domain.DispatchSlip{}).
				Where("order_id = ?", in.OrderID).
				Count(&linked).Error
			if err != nil {
				return err
			}
			if linked > 0 {
				return domain.ErrInvalidState("dispatch slip", "order %d already has a dispatch slip", in.OrderID)
			}
			if refNo == "" {
				refNo = fmt.Sprintf("%s%d", domain.RefPrefixOrder, in.OrderID)
			}
		}
		if refNo == "" {
			prefix := domain.RefPrefixRetail
			if in.Kind == domain.DispatchKindProject {
				prefix = domain.RefPrefixProject
			}
			refNo = prefix + common.UUID()
		}
		slip.RefNo = refNo

		for i, item := range in.Items {
			if item.ProductID == 0 {
				return domain.ErrValidation("item %d: product id is required", i+1)
			}
			if item.Quantity <= 0 {
				return domain.ErrValidation("item %d: quantity must be positive", i+1)
			}
			if _, err := findProduct(tx, item.ProductID); err != nil {
				return err
			}
			unit, err := resolveUnit(tx, item.Unit)
			if err != nil {
				return err
			}
			slip.Items = append(slip.Items, domain.DispatchSlipItem{
				ID:        common.UUIDint64(),
				SlipID:    slip.ID,
				ProductID: item.ProductID,
				Unit:      unit,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
				CreatedAt: time.Now(),
			})
		}
		return tx.Create(slip).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("dispatch slip created",
		zap.Int64("slip_id", slip.ID),
		zap.String("ref_no", slip.RefNo),
		zap.String("kind", slip.Kind),
		zap.Int64("order_id", slip.OrderID))

	return &CreateDispatchResult{Slip: slip, SkippedItems: 0}, nil
}

// Confirm flips a draft dispatch slip to confirmed and decreases stock per
// product, rejecting the whole slip when any product lacks sufficient
// on-hand quantity. When the slip is linked to an order, confirmation of a
// cancelled order's slip is rejected, and a settled order is advanced one
// step toward shipping inside the same transaction.
func (s *DispatchService) Confirm(ctx context.Context, slipID int64) (*ConfirmResult, error) {
	var result *ConfirmResult
	var advanced *domain.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advanced = nil

		var slip domain.DispatchSlip
		err := dbkit.ForUpdate(tx).First(&slip, slipID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound("dispatch slip", slipID)
		}
		if err != nil {
			return err
		}
		if slip.Status != domain.SlipStatusDraft {
			return domain.ErrInvalidState("dispatch slip", "slip %s is %s, only draft slips can be confirmed", slip.RefNo, slip.Status)
		}

		var items []domain.DispatchSlipItem
		if err := tx.Where("slip_id = ?", slip.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrValidation("slip %s has no items", slip.RefNo)
		}

		adjs := make([]inventory.Adjustment, 0, len(items))
		for _, item := range items {
			if item.ProductID == 0 {
				return domain.ErrValidation("slip %s has an item without a product", slip.RefNo)
			}
			if _, err := findProduct(tx, item.ProductID); err != nil {
				return err
			}
			adjs = append(adjs, inventory.Adjustment{ProductID: item.ProductID, Delta: -item.Quantity})
		}

		applied, err := inventory.Apply(tx, adjs, false)
		if err != nil {
			return err
		}

		if slip.OrderID != 0 {
			order, err := s.applyOrderSideEffect(tx, slip.OrderID)
			if err != nil {
				return err
			}
			advanced = order
		}

		now := time.Now()
		err = tx.Model(&domain.DispatchSlip{}).
			Where("id = ?", slip.ID).
			Updates(map[string]interface{}{
				"status":       domain.SlipStatusConfirmed,
				"confirmed_at": now,
				"updated_at":   now,
			}).Error
		if err != nil {
			return err
		}

		writeOprLog(tx, "dispatch_confirm", "dispatch slip %s confirmed", slip.RefNo)

		result = &ConfirmResult{
			SlipID:           slip.ID,
			RefNo:            slip.RefNo,
			Status:           domain.SlipStatusConfirmed,
			ConfirmedAt:      now,
			AffectedProducts: applied,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notifications fire after commit; delivery never affects the workflow.
	if advanced != nil {
		s.fanOutStatusChange(advanced)
	}

	zap.L().Info("dispatch slip confirmed",
		zap.Int64("slip_id", result.SlipID),
		zap.String("ref_no", result.RefNo),
		zap.Int("products", len(result.AffectedProducts)))

	return result, nil
}

// applyOrderSideEffect enforces the cancelled-order guard and advances a
// settled order one step toward shipping. A missing order is non-fatal:
// the slip still confirms, it just fulfils nothing.
func (s *DispatchService) applyOrderSideEffect(tx *gorm.DB, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := dbkit.ForUpdate(tx).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Warn("dispatch slip links a missing order, confirming without order effect",
			zap.Int64("order_id", orderID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if order.Status == domain.OrderStatusCancelled {
		return nil, domain.ErrBusinessRule("order %d is cancelled and cannot be fulfilled", order.ID)
	}

	if order.PaymentStatus != domain.PaymentStatusPaid {
		return nil, nil
	}

	var next string
	switch order.Status {
	case domain.OrderStatusPending:
		next = domain.OrderStatusPaid
	case domain.OrderStatusPaid:
		next = domain.OrderStatusShipping
	default:
		return nil, nil
	}

	err = tx.Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}

	order.Status = next
	zap.L().Info("order advanced by dispatch confirmation",
		zap.Int64("order_id", order.ID),
		zap.String("status", next))
	return &order, nil
}

func (s *DispatchService) fanOutStatusChange(order *domain.Order) {
	payload := map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	}
	s.notifier.Publish(notify.TopicOrderStatusChanged, payload)
	s.notifier.PublishToRole(s.roles.Staff, notify.TopicOrderStatusChanged, payload)
	s.notifier.PublishToRole(s.roles.Admin, notify.TopicOrderStatusChanged, payload)
	s.notifier.PublishToUser(order.CustomerID, notify.TopicOrderStatusChanged, payload)
}

// Delete removes a draft dispatch slip and its items. Confirmed slips are
// immutable history.
func (s *DispatchService) Delete(ctx context.Context, slipID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slip domain.DispatchSlip
		err := dbkit.ForUpdate(tx).First(&slip, slipID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound("dispatch slip", slipID)
		}
		if err != nil {
			return err
		}
		if slip.Status != domain.SlipStatusDraft {
			return domain.ErrInvalidState("dispatch slip", "slip %s is %s, only draft slips can be deleted", slip.RefNo, slip.Status)
		}
		return deleteDispatchSlip(tx, slip.ID)
	})
}

// DeleteDraftsForOrder removes draft dispatch slips linked to an order, as
// part of the order deletion cascade. Confirmed slips are kept as history.
// Runs inside the caller's transaction.
func DeleteDraftsForOrder(tx *gorm.DB, orderID int64) error {
	var slipsForOrder []domain.DispatchSlip
	if err := tx.Where("order_id = ?", orderID).Find(&slipsForOrder).Error; err != nil {
		return err
	}
	for _, slip := range slipsForOrder {
		if slip.Status != domain.SlipStatusDraft {
			zap.L().Warn("keeping non-draft dispatch slip of deleted order",
				zap.Int64("slip_id", slip.ID),
				zap.String("status", slip.Status))
			continue
		}
		if err := deleteDispatchSlip(tx, slip.ID); err != nil {
			return err
		}
	}
	return nil
}

func deleteDispatchSlip(tx *gorm.DB, slipID int64) error {
	if err := tx.Where("slip_id = ?", slipID).Delete(&domain.DispatchSlipItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.DispatchSlip{}, slipID).Error
}

// Get loads a dispatch slip with its items.
func (s *DispatchService) Get(ctx context.Context, slipID int64) (*domain.DispatchSlip, error) {
	var slip domain.DispatchSlip
	err := s.db.WithContext(ctx).Preload("Items").First(&slip, slipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound("dispatch slip", slipID)
	}
	if err != nil {
		return nil, err
	}
	return &slip, nil
}
