package config

const (
	defaultConfigPath          = "~/.config/mgdl/config.toml"
	defaultMangaDir            = "~/manga"
	defaultStateDir            = "~/.local/share/mgdl"
	defaultProviderBaseURL     = "https://weebcentral.com"
	defaultProviderTimeout     = 30
	defaultProviderMaxAttempts = 10
	defaultProviderUserAgent   = "Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0"
	defaultFetchBinary         = "gallery-dl"
	defaultPageDigits          = 3
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MangaDir: defaultMangaDir,
			StateDir: defaultStateDir,
		},
		Provider: Provider{
			BaseURL:        defaultProviderBaseURL,
			RequestTimeout: defaultProviderTimeout,
			MaxAttempts:    defaultProviderMaxAttempts,
			UserAgent:      defaultProviderUserAgent,
		},
		Fetch: Fetch{
			Binary: defaultFetchBinary,
		},
		Organizer: Organizer{
			PageDigits: defaultPageDigits,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
