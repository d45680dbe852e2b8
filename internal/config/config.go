package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/varoOP/playshelf/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed heuristics.yaml
var defaultHeuristics []byte

const (
	defaultTagLookupURL  = "https://store.steampowered.com/app/%s/"
	defaultArtworkCDNURL = "https://cdn.cloudflare.steamstatic.com/steam/apps/%s/%s"
)

// SetDefaults registers default values for every configuration key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("steam_path", defaultSteamPath())
	v.SetDefault("cache_max_mb", 512)
	v.SetDefault("tag_lookup_url", defaultTagLookupURL)
	v.SetDefault("tag_timeout", 5*time.Second)
	v.SetDefault("artwork_cdn_url", defaultArtworkCDNURL)
	v.SetDefault("prefetch_workers", 4)
	v.SetDefault("wide_template_threshold", 800)
	v.SetDefault("log_level", "info")
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (PLAYSHELF_*)
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		DataDir:               v.GetString("data_dir"),
		SteamPath:             v.GetString("steam_path"),
		CacheDir:              v.GetString("cache_dir"),
		TemplatesDir:          v.GetString("templates_dir"),
		CacheMaxMB:            v.GetInt64("cache_max_mb"),
		TagLookupURL:          v.GetString("tag_lookup_url"),
		TagTimeout:            v.GetDuration("tag_timeout"),
		ArtworkCDNURL:         v.GetString("artwork_cdn_url"),
		PrefetchWorkers:       v.GetInt("prefetch_workers"),
		WideTemplateThreshold: v.GetInt("wide_template_threshold"),
		HeuristicsFile:        v.GetString("heuristics_file"),
		PlatformsFile:         v.GetString("platforms_file"),
		DiscordWebhookURL:     v.GetString("discord_webhook_url"),
		LogLevel:              v.GetString("log_level"),
	}

	// Validate required fields
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required (set via config.yaml or PLAYSHELF_DATA_DIR environment variable)")
	}
	if cfg.CacheMaxMB < 0 {
		return nil, fmt.Errorf("invalid cache_max_mb: %d (must be 0 for unbounded or a positive size)", cfg.CacheMaxMB)
	}
	if cfg.PrefetchWorkers <= 0 {
		return nil, fmt.Errorf("invalid prefetch_workers: %d (must be at least 1)", cfg.PrefetchWorkers)
	}
	if cfg.TagTimeout <= 0 {
		return nil, fmt.Errorf("invalid tag_timeout: %s", cfg.TagTimeout)
	}

	return cfg, nil
}

// LoadHeuristics returns the classification lists, read from path when it is
// set and from the embedded defaults otherwise.
func LoadHeuristics(path string) (*domain.Heuristics, error) {
	data := defaultHeuristics
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read heuristics file %s", path)
		}
		data = b
	}

	h := &domain.Heuristics{}
	if err := yaml.Unmarshal(data, h); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal heuristics")
	}

	return h, nil
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "playshelf"
	}
	return filepath.Join(dir, "playshelf")
}

func defaultSteamPath() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\Program Files (x86)\Steam`
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Steam")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".steam", "steam")
	}
}
