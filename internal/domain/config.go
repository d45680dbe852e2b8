package domain

import "time"

type Config struct {
	DataDir               string        `toml:"data_dir" mapstructure:"data_dir"`
	SteamPath             string        `toml:"steam_path" mapstructure:"steam_path"`
	CacheDir              string        `toml:"cache_dir" mapstructure:"cache_dir"`
	TemplatesDir          string        `toml:"templates_dir" mapstructure:"templates_dir"`
	CacheMaxMB            int64         `toml:"cache_max_mb" mapstructure:"cache_max_mb"`
	TagLookupURL          string        `toml:"tag_lookup_url" mapstructure:"tag_lookup_url"`
	TagTimeout            time.Duration `toml:"tag_timeout" mapstructure:"tag_timeout"`
	ArtworkCDNURL         string        `toml:"artwork_cdn_url" mapstructure:"artwork_cdn_url"`
	PrefetchWorkers       int           `toml:"prefetch_workers" mapstructure:"prefetch_workers"`
	WideTemplateThreshold int           `toml:"wide_template_threshold" mapstructure:"wide_template_threshold"`
	HeuristicsFile        string        `toml:"heuristics_file" mapstructure:"heuristics_file"`
	PlatformsFile         string        `toml:"platforms_file" mapstructure:"platforms_file"`
	DiscordWebhookURL     string        `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	LogLevel              string        `toml:"log_level" mapstructure:"log_level"`
}
