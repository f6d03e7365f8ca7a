package slips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/internal/dbkit"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/internal/inventory"
	"github.com/retailworks/opsledger/pkg/common"
)

// ItemInput is one slip line as supplied by the caller.
type ItemInput struct {
	ProductID int64           `json:"product_id,string"`
	Unit      string          `json:"unit"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateReceivingInput carries the draft receiving slip fields.
type CreateReceivingInput struct {
	Supplier    string      `json:"supplier"`
	ReceiptDate string      `json:"receipt_date"` // free-form, parsed by dateparse
	RefNo       string      `json:"ref_no"`
	Note        string      `json:"note"`
	Items       []ItemInput `json:"items"`
}

// ConfirmResult summarizes a successful confirmation for the caller.
type ConfirmResult struct {
	SlipID           int64                  `json:"slip_id,string"`
	RefNo            string                 `json:"ref_no"`
	Status           string                 `json:"status"`
	ConfirmedAt      time.Time              `json:"confirmed_at"`
	AffectedProducts []inventory.Adjustment `json:"affected_products"`
}

// ReceivingService handles the inbound slip workflow: draft creation,
// confirmation (the only place stock increases), and draft deletion.
type ReceivingService struct {
	db *gorm.DB
}

func NewReceivingService(db *gorm.DB) *ReceivingService {
	return &ReceivingService{db: db}
}

// Create validates and persists a draft receiving slip with its items.
func (s *ReceivingService) Create(ctx context.Context, in CreateReceivingInput) (*domain.ReceivingSlip, error) {
	in.Supplier = strings.TrimSpace(in.Supplier)
	if in.Supplier == "" {
		return nil, domain.ErrValidation("supplier is required")
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrValidation("slip requires at least one item")
	}
	receiptDate, err := parseSlipDate(in.ReceiptDate, "receipt date")
	if err != nil {
		return nil, err
	}

	refNo := strings.TrimSpace(in.RefNo)
	if refNo == "" {
		refNo = domain.RefPrefixReceiving + common.UUID()
	}

	slip := &domain.ReceivingSlip{
		ID:          common.UUIDint64(),
		RefNo:       refNo,
		Supplier:    in.Supplier,
		ReceiptDate: receiptDate,
		Status:      domain.SlipStatusDraft,
		Note:        in.Note,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
			slip.Items = append(slip.Items, domain.ReceivingSlipItem{
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

	zap.L().Info("receiving slip created",
		zap.Int64("slip_id", slip.ID),
		zap.String("ref_no", slip.RefNo),
		zap.Int("items", len(slip.Items)))

	return slip, nil
}

// Confirm flips a draft receiving slip to confirmed and increases stock for
// each item, aggregated per product, in one transaction. Re-confirmation is
// rejected as an invalid state with no stock effect.
func (s *ReceivingService) Confirm(ctx context.Context, slipID int64) (*ConfirmResult, error) {
	var result *ConfirmResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slip domain.ReceivingSlip
		err := dbkit.ForUpdate(tx).First(&slip, slipID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound("receiving slip", slipID)
		}
		if err != nil {
			return err
		}
		if slip.Status != domain.SlipStatusDraft {
			return domain.ErrInvalidState("receiving slip", "slip %s is %s, only draft slips can be confirmed", slip.RefNo, slip.Status)
		}

		var items []domain.ReceivingSlipItem
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
			adjs = append(adjs, inventory.Adjustment{ProductID: item.ProductID, Delta: item.Quantity})
		}

		applied, err := inventory.Apply(tx, adjs, true)
		if err != nil {
			return err
		}

		now := time.Now()
		err = tx.Model(&domain.ReceivingSlip{}).
			Where("id = ?", slip.ID).
			Updates(map[string]interface{}{
				"status":       domain.SlipStatusConfirmed,
				"confirmed_at": now,
				"updated_at":   now,
			}).Error
		if err != nil {
			return err
		}

		writeOprLog(tx, "receiving_confirm", "receiving slip %s confirmed", slip.RefNo)

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

	zap.L().Info("receiving slip confirmed",
		zap.Int64("slip_id", result.SlipID),
		zap.String("ref_no", result.RefNo),
		zap.Int("products", len(result.AffectedProducts)))

	return result, nil
}

// Delete cancels a draft receiving slip. Confirmed slips are immutable
// history; receiving slips are soft-deleted so the reference number stays
// on record.
func (s *ReceivingService) Delete(ctx context.Context, slipID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slip domain.ReceivingSlip
		err := dbkit.ForUpdate(tx).First(&slip, slipID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound("receiving slip", slipID)
		}
		if err != nil {
			return err
		}
		if slip.Status != domain.SlipStatusDraft {
			return domain.ErrInvalidState("receiving slip", "slip %s is %s, only draft slips can be deleted", slip.RefNo, slip.Status)
		}

		return tx.Model(&domain.ReceivingSlip{}).
			Where("id = ?", slip.ID).
			Updates(map[string]interface{}{
				"status":     domain.SlipStatusCancelled,
				"updated_at": time.Now(),
			}).Error
	})
}

// Get loads a receiving slip with its items.
func (s *ReceivingService) Get(ctx context.Context, slipID int64) (*domain.ReceivingSlip, error) {
	var slip domain.ReceivingSlip
	err := s.db.WithContext(ctx).Preload("Items").First(&slip, slipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound("receiving slip", slipID)
	}
	if err != nil {
		return nil, err
	}
	return &slip, nil
}

// findProduct loads a product or reports NotFound.
func findProduct(tx *gorm.DB, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := tx.First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound("product", productID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// writeOprLog records an audit row. Failures are logged and swallowed so
// audit trouble never aborts the confirmation.
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

// parseSlipDate accepts the free-form date strings the back office sends
// (RFC3339, "2026-08-01", "2026/08/01 10:00", ...). Blank means now.
func parseSlipDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now(), nil
	}
	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, domain.ErrValidation("unparseable %s %q", field, raw)
	}
	return parsed, nil
}

// resolveUnit checks a unit-of-measure label against the uom table. A blank
// label is allowed and resolved later at invoice time to the default unit.
func resolveUnit(tx *gorm.DB, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	var u domain.Uom
	err := tx.Where("name = ?", name).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrValidation("unknown unit of measure %q", name)
	}
	if err != nil {
		return "", err
	}
	return u.Name, nil
}
