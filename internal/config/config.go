package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort          string        `mapstructure:"HTTP_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DatabaseDSN       string        `mapstructure:"DATABASE_DSN"`
	Secret            string        `mapstructure:"SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	LowStockThreshold int64         `mapstructure:"LOW_STOCK_THRESHOLD"`
	CORSOrigins       []string      `mapstructure:"-"`
	MedicineCatalog   string        `mapstructure:"MEDICINE_CATALOG"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"HTTP_PORT", "ENV", "LOG_LEVEL", "DB_DRIVER", "DATABASE_DSN", "SECRET",
	"TOKEN_TTL", "LOW_STOCK_THRESHOLD", "CORS_ORIGINS", "MEDICINE_CATALOG",
	"SHUTDOWN_TIMEOUT",
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "rxdesk.db")
	v.SetDefault("SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("MEDICINE_CATALOG", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if cfg.Secret == "" && !cfg.IsProduction() {
		cfg.Secret = "dev_secret"
	}
	return cfg, nil
}

// IsProduction reports whether ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is usable before the server starts.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		return fmt.Errorf("invalid HTTP_PORT value %q", c.HTTPPort)
	}
	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be \"sqlite\" or \"pgx\", got %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("SECRET is required in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.LowStockThreshold <= 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must be positive")
	}
	return nil
}
