package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product catalog item. Created and edited by the catalog collaborator;
// the fulfilment core only reads it.
type Product struct {
	ID        int64           `json:"id,string" gorm:"primaryKey"`
	Code      string          `gorm:"uniqueIndex;size:64" json:"code" form:"code"`
	Name      string          `gorm:"index" json:"name" form:"name"`
	Unit      string          `gorm:"size:32" json:"unit" form:"unit"` // unit-of-measure label, may be empty
	Price     decimal.Decimal `gorm:"type:numeric(18,2)" json:"price" form:"price"`
	Status    string          `json:"status" form:"status"` // enabled/disabled
	Remark    string          `json:"remark" form:"remark"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "product"
}

// Uom unit-of-measure reference data, seeded at startup.
type Uom struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:32" json:"name" form:"name"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Uom) TableName() string {
	return "uom"
}

// Project a customer project that dispatch slips can be issued against.
type Project struct {
	ID        int64     `json:"id,string" gorm:"primaryKey"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Company   string    `json:"company" form:"company"`
	Address   string    `json:"address" form:"address"`
	Status    string    `json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Project) TableName() string {
	return "project"
}
