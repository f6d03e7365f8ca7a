package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysUser{},
	&SysOprLog{},
	// Catalog
	&Product{},
	&Uom{},
	&Project{},
	// Inventory
	&StockRecord{},
	&StockSnapshot{},
	// Slips
	&ReceivingSlip{},
	&ReceivingSlipItem{},
	&DispatchSlip{},
	&DispatchSlipItem{},
	// Orders
	&Order{},
	&OrderItem{},
	&Invoice{},
	&InvoiceItem{},
}
