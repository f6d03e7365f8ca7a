package config

import (
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SystemConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// RolesConfig enumerates the role names the workflows care about.
// Looked up once from configuration, never by string per call.
type RolesConfig struct {
	Customer string `yaml:"customer"`
	Staff    string `yaml:"staff"`
	Admin    string `yaml:"admin"`
}

// BillingConfig holds invoice derivation parameters.
type BillingConfig struct {
	TaxRate     float64 `yaml:"tax_rate"`
	DefaultUnit string  `yaml:"default_unit"`
}

type AppConfig struct {
	System   SystemConfig  `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Logger   LoggerConfig  `yaml:"logger"`
	Roles    RolesConfig   `yaml:"roles"`
	Billing  BillingConfig `yaml:"billing"`
}

var DefaultAppConfig = &AppConfig{
	System: SystemConfig{
		Appid:    "opsledger",
		Location: "Asia/Ho_Chi_Minh",
		Workdir:  "/var/opsledger",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1816,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "opsledger",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/opsledger/opsledger.log",
	},
	Roles: RolesConfig{
		Customer: "customer",
		Staff:    "staff",
		Admin:    "admin",
	},
	Billing: BillingConfig{
		TaxRate:     0.10,
		DefaultUnit: "pcs",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v, ok := os.LookupEnv(name); ok {
		f(v)
	}
}

// LoadConfig reads configuration from a YAML file, falling back to
// DefaultAppConfig, then applies environment overrides.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("OPSLEDGER_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("OPSLEDGER_SYSTEM_DEBUG", func(v string) { cfg.System.Debug = cast.ToBool(v) })
	setEnvValue("OPSLEDGER_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("OPSLEDGER_WEB_PORT", func(v string) { cfg.Web.Port = cast.ToInt(v) })
	setEnvValue("OPSLEDGER_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("OPSLEDGER_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("OPSLEDGER_DB_PORT", func(v string) { cfg.Database.Port = cast.ToInt(v) })
	setEnvValue("OPSLEDGER_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("OPSLEDGER_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("OPSLEDGER_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("OPSLEDGER_BILLING_TAX_RATE", func(v string) { cfg.Billing.TaxRate = cast.ToFloat64(v) })

	return cfg
}
