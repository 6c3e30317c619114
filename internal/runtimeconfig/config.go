package runtimeconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by FromEnv.
const EnvPrefix = "PORTAL_"

var (
	ErrDefaultLocaleRequired  = errors.New("portal config: default locale is required")
	ErrLocalesRequired        = errors.New("portal config: at least one locale is required")
	ErrDefaultLocaleNotListed = errors.New("portal config: default locale must be one of the configured locales")
	ErrStorageDriverUnknown   = errors.New("portal config: storage driver is invalid")
	ErrStorageDSNRequired     = errors.New("portal config: storage dsn is required")
	ErrStoragePoolInvalid     = errors.New("portal config: storage pool sizes must be zero or positive")
	ErrSlugRetriesInvalid     = errors.New("portal config: slug retries must be at least one")
	ErrSearchLimitInvalid     = errors.New("portal config: search limit must be positive")
	ErrReadRetriesInvalid     = errors.New("portal config: read retries must be zero or positive")
	ErrCacheTTLInvalid        = errors.New("portal config: cache ttl must be positive when cache is enabled")
	ErrLoggingProviderUnknown = errors.New("portal config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("portal config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("portal config: logging format is invalid")
)

// Config aggregates the settings consumed by the portal module.
type Config struct {
	DefaultLocale string        `env:"DEFAULT_LOCALE"`
	I18N          I18NConfig    `envPrefix:"I18N_"`
	Storage       StorageConfig `envPrefix:"STORAGE_"`
	Content       ContentConfig `envPrefix:"CONTENT_"`
	Cache         CacheConfig   `envPrefix:"CACHE_"`
	Logging       LoggingConfig `envPrefix:"LOG_"`
}

// I18NConfig lists the supported locale codes in display order.
type I18NConfig struct {
	Locales []string `env:"LOCALES"`
}

// StorageConfig selects the SQL backend and pool sizing.
type StorageConfig struct {
	Driver          string        `env:"DRIVER"`
	DSN             string        `env:"DSN"`
	Debug           bool          `env:"DEBUG"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`
}

// ContentConfig tunes the content services.
type ContentConfig struct {
	SlugRetries int           `env:"SLUG_RETRIES"`
	SearchLimit int           `env:"SEARCH_LIMIT"`
	ReadRetries int           `env:"READ_RETRIES"`
	ReadBackoff time.Duration `env:"READ_BACKOFF"`
}

// CacheConfig controls the listing cache that mutations invalidate.
type CacheConfig struct {
	Enabled bool          `env:"ENABLED"`
	TTL     time.Duration `env:"TTL"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `env:"PROVIDER"`
	Level     string   `env:"LEVEL"`
	Format    string   `env:"FORMAT"`
	AddSource bool     `env:"ADD_SOURCE"`
	Focus     []string `env:"FOCUS"`
}

// DefaultConfig returns the settings used by the research portal: French
// first, English and Arabic as secondary locales, SQLite in memory.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "fr",
		I18N: I18NConfig{
			Locales: []string{"fr", "en", "ar"},
		},
		Storage: StorageConfig{
			Driver:          "sqlite3",
			DSN:             "file:portal?mode=memory&cache=shared&_fk=1",
			AutoMigrate:     true,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 0,
		},
		Content: ContentConfig{
			SlugRetries: 3,
			SearchLimit: 20,
			ReadRetries: 2,
			ReadBackoff: 25 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// FromEnv overlays PORTAL_* environment variables on top of base. Variables
// that are not set leave the corresponding field untouched.
func FromEnv(base Config) (Config, error) {
	return fromEnv(base, env.Options{Prefix: EnvPrefix})
}

func fromEnv(base Config, opts env.Options) (Config, error) {
	cfg := base
	cfg.I18N.Locales = slices.Clone(base.I18N.Locales)
	cfg.Logging.Focus = slices.Clone(base.Logging.Focus)
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return base, fmt.Errorf("portal config: parse environment: %w", err)
	}
	return cfg, nil
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	def := strings.TrimSpace(cfg.DefaultLocale)
	if def == "" {
		return ErrDefaultLocaleRequired
	}
	if len(cfg.I18N.Locales) == 0 {
		return ErrLocalesRequired
	}
	if !slices.ContainsFunc(cfg.I18N.Locales, func(code string) bool {
		return strings.EqualFold(strings.TrimSpace(code), def)
	}) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotListed, def)
	}

	switch driver := normalize(cfg.Storage.Driver); driver {
	case "sqlite3", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Storage.MaxOpenConns < 0 || cfg.Storage.MaxIdleConns < 0 {
		return ErrStoragePoolInvalid
	}

	if cfg.Content.SlugRetries < 1 {
		return ErrSlugRetriesInvalid
	}
	if cfg.Content.SearchLimit < 1 {
		return ErrSearchLimitInvalid
	}
	if cfg.Content.ReadRetries < 0 {
		return ErrReadRetriesInvalid
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}

	provider := normalize(cfg.Logging.Provider)
	switch provider {
	case "", "console", "gologger":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	switch level := normalize(cfg.Logging.Level); level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		switch format := normalize(cfg.Logging.Format); format {
		case "", "json", "console", "pretty":
		default:
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
