package inventory

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/retailworks/opsledger/internal/domain"
)

// Adjustment is one signed stock change for one product. Positive deltas
// come from receiving slips, negative from dispatch slips.
type Adjustment struct {
	ProductID int64 `json:"product_id,string"`
	Delta     int   `json:"delta"`
}

// Aggregate folds duplicate product lines into one adjustment per product,
// so a slip referencing the same product in several lines is checked and
// applied against its total. Result is ordered by product id to keep lock
// acquisition order deterministic across concurrent confirmations.
func Aggregate(adjs []Adjustment) []Adjustment {
	byProduct := make(map[int64]int, len(adjs))
	for _, a := range adjs {
		byProduct[a.ProductID] += a.Delta
	}

	out := make([]Adjustment, 0, len(byProduct))
	for pid, delta := range byProduct {
		out = append(out, Adjustment{ProductID: pid, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Apply locks and mutates the stock rows for every adjustment inside the
// caller's transaction. All-or-nothing: any missing row (unless
// createMissing, the receiving case) or insufficient quantity aborts the
// whole batch and the caller's transaction rolls back.
//
// Returned adjustments echo the applied per-product deltas for the
// confirmation summary.
func Apply(tx *gorm.DB, adjs []Adjustment, createMissing bool) ([]Adjustment, error) {
	applied := make([]Adjustment, 0, len(adjs))

	for _, adj := range Aggregate(adjs) {
		rec, err := lockStockRecord(tx, adj.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if !createMissing {
				return nil, domain.ErrBusinessRule(
					"insufficient stock for product %d: on hand 0, requested %d", adj.ProductID, -adj.Delta)
			}
			rec, err = createStockRecord(tx, adj.ProductID)
		}
		if err != nil {
			return nil, err
		}

		newQty := rec.Quantity + adj.Delta
		if newQty < 0 {
			return nil, domain.ErrBusinessRule(
				"insufficient stock for product %d: on hand %d, requested %d",
				adj.ProductID, rec.Quantity, -adj.Delta)
		}

		err = tx.Model(&domain.StockRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"quantity":   newQty,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return nil, err
		}

		applied = append(applied, adj)
	}

	return applied, nil
}
