package imageprefetch

import (
	"strconv"

	"imgviewer/config"
)

// ListConfig mirrors the "list" configuration section's recognized keys.
type ListConfig struct {
	Source       string
	URL          string
	CacheDir     string
	CacheLimit   int
	PrefetchN    int
	SaveToFile   bool
	CleanupCache bool
	NoImageAsset string
}

// DefaultListConfig returns the defaults an ImageList starts with before
// any configuration is applied.
func DefaultListConfig() ListConfig {
	return ListConfig{CacheLimit: 10, PrefetchN: 3}
}

// RegisterListConfig wires a "list" section handler onto reg that applies
// validated values directly onto cfg. Unknown keys report InvalidKey;
// unparsable values report InvalidValue; both leave cfg unchanged.
func RegisterListConfig(reg *config.Registry, cfg *ListConfig) {
	reg.Register("list", func(key, value string) config.Result {
		switch key {
		case "source":
			if value != "www" {
				return config.InvalidValue
			}
			cfg.Source = value
			return config.OK

		case "www_url":
			if value == "" {
				return config.InvalidValue
			}
			cfg.URL = value
			return config.OK

		case "www_cache":
			cfg.CacheDir = value
			return config.OK

		case "www_cache_limit":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return config.InvalidValue
			}
			cfg.CacheLimit = n
			return config.OK

		case "www_prefetch_n":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return config.InvalidValue
			}
			cfg.PrefetchN = n
			return config.OK

		case "www_save_to_file":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return config.InvalidValue
			}
			cfg.SaveToFile = b
			return config.OK

		case "www_cleanup_cache":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return config.InvalidValue
			}
			cfg.CleanupCache = b
			return config.OK

		case "no_image_asset":
			cfg.NoImageAsset = value
			return config.OK

		default:
			return config.InvalidKey
		}
	})
}
