package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/config"
	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/internal/inventory"
	"github.com/retailworks/opsledger/internal/notify"
	"github.com/retailworks/opsledger/internal/orders"
	"github.com/retailworks/opsledger/internal/reporting"
	"github.com/retailworks/opsledger/internal/slips"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	notifier  *notify.BusNotifier

	stockRepo      inventory.StockRepository
	receivingSvc   *slips.ReceivingService
	dispatchSvc    *slips.DispatchService
	orderSvc       *orders.Service
	snapshotWriter *reporting.SnapshotWriter
}

// Ensure Application implements all interfaces
var (
	_ DBProvider       = (*Application)(nil)
	_ ConfigProvider   = (*Application)(nil)
	_ ServicesProvider = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.initServices()
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.checkSuper()
	a.checkSettings()
	a.checkUoms()

	a.notifier = notify.NewBusNotifier()
	a.initServices()
	a.initJob()
}

// initServices wires repositories and workflow services onto the current
// database handle.
func (a *Application) initServices() {
	var notifier notify.Notifier = notify.NopNotifier{}
	if a.notifier != nil {
		notifier = a.notifier
	}

	a.stockRepo = inventory.NewGormStockRepository(a.gormDB)
	a.receivingSvc = slips.NewReceivingService(a.gormDB)
	a.dispatchSvc = slips.NewDispatchService(a.gormDB, a.appConfig.Roles, notifier)
	a.orderSvc = orders.NewService(a.gormDB, a.appConfig.Roles, a.appConfig.Billing, notifier)
	a.snapshotWriter = reporting.NewSnapshotWriter(a.gormDB, a.stockRepo)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Notifier returns the outbound event notifier
func (a *Application) Notifier() *notify.BusNotifier {
	return a.notifier
}

func (a *Application) StockRepo() inventory.StockRepository      { return a.stockRepo }
func (a *Application) ReceivingService() *slips.ReceivingService { return a.receivingSvc }
func (a *Application) DispatchService() *slips.DispatchService   { return a.dispatchSvc }
func (a *Application) OrderService() *orders.Service             { return a.orderSvc }
func (a *Application) SnapshotWriter() *reporting.SnapshotWriter { return a.snapshotWriter }

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	var cfg domain.SysConfig
	if err := a.gormDB.Where("type = ? and name = ?", category, key).First(&cfg).Error; err != nil {
		return ""
	}
	return cfg.Value
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = zap.L().Sync()
}
