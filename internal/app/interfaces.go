package app

import (
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/config"
	"github.com/retailworks/opsledger/internal/inventory"
	"github.com/retailworks/opsledger/internal/orders"
	"github.com/retailworks/opsledger/internal/slips"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// ServicesProvider provides the fulfilment workflow services
type ServicesProvider interface {
	StockRepo() inventory.StockRepository
	ReceivingService() *slips.ReceivingService
	DispatchService() *slips.DispatchService
	OrderService() *orders.Service
}

// AppContext combines the provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	ServicesProvider

	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
