// Package config loads gateway settings with viper.
//
// Precedence, lowest first: built-in defaults, the optional config.yaml in the
// XDG config dir (or the file given with --config), TABLEWIRE_* environment
// variables, then command-line flags bound by the cmd package. Secrets are not
// written here; a DSN saved by "tablewire connect" lives in the OS keychain.
package config

import (
	"strings"
	"time"

	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/xdg"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TABLEWIRE_LISTEN_ADDR.
const EnvPrefix = "TABLEWIRE"

// Drivers accepted by db.driver.
const (
	DriverAuto     = "auto"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds gateway settings.
type Config struct {
	LogLevel  string       `mapstructure:"log_level"`
	LogFormat string       `mapstructure:"log_format"`
	Listen    ListenConfig `mapstructure:"listen"`
	DB        DBConfig     `mapstructure:"db"`
}

// ListenConfig holds listener addresses.
type ListenConfig struct {
	// Addr is the websocket (and /metrics) listen address.
	Addr string `mapstructure:"addr"`
	// Path is the HTTP path upgraded to websocket.
	Path string `mapstructure:"path"`
	// HealthAddr is the gRPC health listen address; empty disables it.
	HealthAddr string `mapstructure:"health_addr"`
	// AllowedOrigins restricts browser Origin headers; empty accepts any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig holds backend connection settings.
type DBConfig struct {
	DSN          string        `mapstructure:"dsn"`
	Driver       string        `mapstructure:"driver"`
	Pool         bool          `mapstructure:"pool"`
	MaxConns     int32         `mapstructure:"max_conns"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	SampleLimit  int           `mapstructure:"sample_limit"`
	IAM          IAMConfig     `mapstructure:"iam"`
}

// IAMConfig enables RDS IAM token authentication for backend connections.
type IAMConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
}

// SetDefaults registers every key with its default so env overrides apply on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("listen.addr", "127.0.0.1:8888")
	v.SetDefault("listen.path", "/")
	v.SetDefault("listen.health_addr", "127.0.0.1:8889")
	v.SetDefault("listen.allowed_origins", []string{})
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.driver", DriverAuto)
	v.SetDefault("db.pool", false)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.query_timeout", 30*time.Second)
	v.SetDefault("db.sample_limit", 24)
	v.SetDefault("db.iam.enabled", false)
	v.SetDefault("db.iam.region", "")
}

// Load reads configuration into a Config. file may be empty, in which case
// config.yaml is looked up in the XDG config dir; a missing file is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	var c Config

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return c, errors.Wrap(err, "resolve config dir")
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, errors.Wrapf(err, "read config %s", v.ConfigFileUsed())
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values that would otherwise fail late, at first use.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if strings.TrimSpace(c.Listen.Addr) == "" {
		return errors.New("listen.addr must not be empty")
	}
	if !strings.HasPrefix(c.Listen.Path, "/") {
		return errors.Newf("listen.path must start with /, got %q", c.Listen.Path)
	}
	switch c.DB.Driver {
	case DriverAuto, DriverPgx, DriverPostgres, DriverMySQL:
	default:
		return errors.Newf("db.driver %q is not one of auto, pgx, postgres, mysql", c.DB.Driver)
	}
	if c.DB.SampleLimit <= 0 {
		return errors.Newf("db.sample_limit must be positive, got %d", c.DB.SampleLimit)
	}
	if c.DB.QueryTimeout < 0 {
		return errors.Newf("db.query_timeout must not be negative, got %s", c.DB.QueryTimeout)
	}
	if c.DB.Pool && c.DB.MaxConns <= 0 {
		return errors.Newf("db.max_conns must be positive when db.pool is set, got %d", c.DB.MaxConns)
	}
	if c.DB.IAM.Enabled && strings.TrimSpace(c.DB.IAM.Region) == "" {
		return errors.New("db.iam.region is required when db.iam.enabled is set")
	}
	return nil
}
