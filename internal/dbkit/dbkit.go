package dbkit

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate applies a row-level FOR UPDATE lock. SQLite has a single writer
// and no FOR UPDATE syntax, so the clause is skipped there; transactions
// already serialize conflicting writers on that engine.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
