package i18n

// Config lists the locales a registry accepts. DefaultLocale must be one of
// Locales.
type Config struct {
	DefaultLocale string
	Locales       []string
}

// FromModuleConfig adapts the runtime configuration fields.
func FromModuleConfig(defaultLocale string, locales []string) Config {
	return Config{
		DefaultLocale: defaultLocale,
		Locales:       locales,
	}
}
