package portal

import "github.com/goliatone/go-portal/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired  = runtimeconfig.ErrDefaultLocaleRequired
	ErrLocalesRequired        = runtimeconfig.ErrLocalesRequired
	ErrDefaultLocaleNotListed = runtimeconfig.ErrDefaultLocaleNotListed
	ErrStorageDriverUnknown   = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired     = runtimeconfig.ErrStorageDSNRequired
	ErrStoragePoolInvalid     = runtimeconfig.ErrStoragePoolInvalid
	ErrSlugRetriesInvalid     = runtimeconfig.ErrSlugRetriesInvalid
	ErrSearchLimitInvalid     = runtimeconfig.ErrSearchLimitInvalid
	ErrReadRetriesInvalid     = runtimeconfig.ErrReadRetriesInvalid
	ErrCacheTTLInvalid        = runtimeconfig.ErrCacheTTLInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	I18NConfig    = runtimeconfig.I18NConfig
	StorageConfig = runtimeconfig.StorageConfig
	ContentConfig = runtimeconfig.ContentConfig
	CacheConfig   = runtimeconfig.CacheConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// FromEnv overlays PORTAL_* environment variables on base.
func FromEnv(base Config) (Config, error) {
	return runtimeconfig.FromEnv(base)
}
