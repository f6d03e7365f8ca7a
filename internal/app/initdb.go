package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailworks/opsledger/internal/domain"
	"github.com/retailworks/opsledger/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "opsledger"

	hashedPassword := common.Sha256HashWithSalt(defaultPassword, common.GetSecretSalt())

	var operator domain.SysUser
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysUser{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     common.NA,
			Username:  superUsername,
			Password:  hashedPassword,
			Role:      a.appConfig.Roles.Admin,
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	if strings.TrimSpace(operator.Password) != "" && strings.EqualFold(operator.Role, a.appConfig.Roles.Admin) {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
		"role":       a.appConfig.Roles.Admin,
	}
	if strings.TrimSpace(operator.Password) == "" {
		updates["password"] = hashedPassword
	}
	if err := a.gormDB.Model(&domain.SysUser{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default super admin account", zap.String("username", superUsername))
}

// Default settings seeded once; operators adjust them through sys_config.
var defaultSettings = []domain.SysConfig{
	{Type: "billing", Name: "TaxRate", Value: "0.10", Remark: "VAT rate applied at invoice derivation"},
	{Type: "billing", Name: "DefaultUnit", Value: "pcs", Remark: "Fallback unit label for invoice lines"},
	{Type: "reporting", Name: "SnapshotRetentionDays", Value: "365", Remark: "Stock snapshot retention window"},
}

func (a *Application) checkSettings() {
	for sortid, cfg := range defaultSettings {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", cfg.Type, cfg.Name).
			Count(&count)

		if count == 0 {
			cfg.ID = common.UUIDint64()
			cfg.Sort = sortid
			a.gormDB.Create(&cfg)
			zap.L().Info("initialized config",
				zap.String("key", cfg.Type+"."+cfg.Name),
				zap.String("default", cfg.Value))
		}
	}
}

// checkUoms seeds the unit-of-measure reference data.
func (a *Application) checkUoms() {
	defaultUoms := []domain.Uom{
		{Name: "pcs", Remark: "pieces"},
		{Name: "box", Remark: "box"},
		{Name: "kg", Remark: "kilogram"},
		{Name: "m", Remark: "meter"},
		{Name: "set", Remark: "set"},
	}

	for _, u := range defaultUoms {
		var count int64
		a.gormDB.Model(&domain.Uom{}).Where("name = ?", u.Name).Count(&count)
		if count == 0 {
			u.ID = common.UUIDint64()
			u.CreatedAt = time.Now()
			u.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&u).Error; err != nil {
				zap.L().Error("failed to create default uom", zap.String("name", u.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default uom", zap.String("name", u.Name))
			}
		}
	}
}
