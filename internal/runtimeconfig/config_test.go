package runtimeconfig

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() returned %v", err)
	}
	if cfg.DefaultLocale != "fr" {
		t.Fatalf("expected fr default locale, got %q", cfg.DefaultLocale)
	}
	if !slices.Equal(cfg.I18N.Locales, []string{"fr", "en", "ar"}) {
		t.Fatalf("unexpected locales %v", cfg.I18N.Locales)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing default", func(c *Config) { c.DefaultLocale = " " }, ErrDefaultLocaleRequired},
		{"no locales", func(c *Config) { c.I18N.Locales = nil }, ErrLocalesRequired},
		{"default not listed", func(c *Config) { c.DefaultLocale = "de" }, ErrDefaultLocaleNotListed},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, ErrStorageDriverUnknown},
		{"missing dsn", func(c *Config) { c.Storage.DSN = "" }, ErrStorageDSNRequired},
		{"negative pool", func(c *Config) { c.Storage.MaxIdleConns = -1 }, ErrStoragePoolInvalid},
		{"zero slug retries", func(c *Config) { c.Content.SlugRetries = 0 }, ErrSlugRetriesInvalid},
		{"zero search limit", func(c *Config) { c.Content.SearchLimit = 0 }, ErrSearchLimitInvalid},
		{"negative read retries", func(c *Config) { c.Content.ReadRetries = -2 }, ErrReadRetriesInvalid},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }, ErrCacheTTLInvalid},
		{"unknown logger", func(c *Config) { c.Logging.Provider = "syslog" }, ErrLoggingProviderUnknown},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, ErrLoggingLevelInvalid},
		{"bad format", func(c *Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, ErrLoggingFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateDefaultLocaleIsCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLocale = "FR"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected FR to match fr, got %v", err)
	}
}

func TestFromEnvOverlaysSetVariables(t *testing.T) {
	base := DefaultConfig()
	cfg, err := fromEnv(base, env.Options{
		Prefix: EnvPrefix,
		Environment: map[string]string{
			"PORTAL_DEFAULT_LOCALE":         "en",
			"PORTAL_I18N_LOCALES":           "en,fr",
			"PORTAL_STORAGE_DRIVER":         "postgres",
			"PORTAL_STORAGE_DSN":            "postgres://portal@localhost/portal?sslmode=disable",
			"PORTAL_STORAGE_MAX_OPEN_CONNS": "10",
			"PORTAL_CONTENT_READ_BACKOFF":   "50ms",
			"PORTAL_LOG_PROVIDER":           "gologger",
			"PORTAL_LOG_FOCUS":              "portal.article,portal.storage",
		},
	})
	if err != nil {
		t.Fatalf("fromEnv returned error: %v", err)
	}

	if cfg.DefaultLocale != "en" || !slices.Equal(cfg.I18N.Locales, []string{"en", "fr"}) {
		t.Fatalf("locale overlay not applied: %q %v", cfg.DefaultLocale, cfg.I18N.Locales)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.MaxOpenConns != 10 {
		t.Fatalf("storage overlay not applied: %+v", cfg.Storage)
	}
	if cfg.Content.ReadBackoff != 50*time.Millisecond {
		t.Fatalf("expected 50ms backoff, got %s", cfg.Content.ReadBackoff)
	}
	if cfg.Content.SlugRetries != base.Content.SlugRetries {
		t.Fatalf("unset variable should keep default, got %d", cfg.Content.SlugRetries)
	}
	if !slices.Equal(cfg.Logging.Focus, []string{"portal.article", "portal.storage"}) {
		t.Fatalf("unexpected focus %v", cfg.Logging.Focus)
	}
	if !slices.Equal(base.I18N.Locales, []string{"fr", "en", "ar"}) {
		t.Fatalf("base config mutated: %v", base.I18N.Locales)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("overlaid config invalid: %v", err)
	}
}

func TestFromEnvReportsParseErrors(t *testing.T) {
	_, err := fromEnv(DefaultConfig(), env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{"PORTAL_CONTENT_SLUG_RETRIES": "many"},
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
}
