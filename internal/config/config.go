// Package config handles loading application configuration from a YAML file
// with environment variable overrides.
//
// Config file format (tcg-kiosk.yaml):
//
//	listen_addr: ":8080"
//	data_dir: "./data"
//	backend: "sqlite"
//	locale: "fr"
//	image_proxy:
//	  base_url: "https://images.weserv.nl/?url="
//	  hosts: ["images.pokemontcg.io"]
//
// Configuration sources, in increasing priority order:
//  1. Built-in defaults
//  2. YAML config file (located by FindConfigFile or explicit path)
//  3. A .env file in the working directory
//  4. Environment variables (LISTEN_ADDR, DATA_DIR, BACKEND, ...)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ImageProxy configures the external image proxy.
type ImageProxy struct {
	// BaseURL is prefixed to the escaped original image URL.
	BaseURL string `yaml:"base_url"`

	// Hosts lists the upstream image hosts that may be proxied.
	Hosts []string `yaml:"hosts"`
}

// Config holds all application configuration.
type Config struct {
	// ListenAddr is the TCP address for the HTTP server (e.g. ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// DataDir is the root of the card tree (<game>/cards/**/*.json).
	DataDir string `yaml:"data_dir"`

	// Backend selects the catalog source implementation.
	// "fs"     – catalog built in memory on first use (default)
	// "sqlite" – catalog persisted in a SQLite snapshot store
	Backend string `yaml:"backend"`

	// CachePath is the SQLite snapshot file. Empty means {data_dir}/.catalog.db.
	CachePath string `yaml:"cache_path"`

	// PageSize is the default number of cards per page.
	PageSize int `yaml:"page_size"`

	// EmptyGameMode is "none" (no cards until a game is chosen) or "all"
	// (every game's cards).
	EmptyGameMode string `yaml:"empty_game_mode"`

	// Locale selects the UI language ("en", "fr").
	Locale string `yaml:"locale"`

	// OverlayBaseURL is where card-back overlay images are served from.
	OverlayBaseURL string `yaml:"overlay_base_url"`

	ImageProxy ImageProxy `yaml:"image_proxy"`

	// TypeIcons maps type values to icon URLs for clients.
	TypeIcons map[string]string `yaml:"type_icons"`

	// InvalidateSchedule is a cron expression (e.g. "@hourly") for dropping
	// the cached catalog. Empty disables scheduled invalidation.
	InvalidateSchedule string `yaml:"invalidate_schedule"`

	// RefreshRateLimitStr is the minimum interval between two manual
	// refreshes, as a duration string (e.g. "30s"). "0" disables the limit.
	RefreshRateLimitStr string `yaml:"refresh_rate_limit"`

	// RefreshRateLimit is the parsed form of RefreshRateLimitStr.
	RefreshRateLimit time.Duration `yaml:"-"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json", "console" or "auto".
	LogFormat string `yaml:"log_format"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		DataDir:        "./data",
		Backend:        "fs",
		PageSize:       20,
		EmptyGameMode:  "none",
		Locale:         "en",
		OverlayBaseURL: "/static/overlay",
		ImageProxy: ImageProxy{
			BaseURL: "https://images.weserv.nl/?url=",
			Hosts:   []string{"images.pokemontcg.io"},
		},
		RefreshRateLimitStr: "30s",
		RefreshRateLimit:    30 * time.Second,
		LogLevel:            "info",
		LogFormat:           "auto",
	}
}

// Load reads configuration from the YAML file at path (if non-empty), then
// applies environment variable overrides on top. Returns the merged Config.
// If path is empty, only defaults and environment variables are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	// Variables already set in the environment win over the .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("EMPTY_GAME_MODE"); v != "" {
		cfg.EmptyGameMode = v
	}
	if v := os.Getenv("LOCALE"); v != "" {
		cfg.Locale = v
	}
	if v := os.Getenv("IMAGE_PROXY_BASE_URL"); v != "" {
		cfg.ImageProxy.BaseURL = v
	}
	if v := os.Getenv("IMAGE_PROXY_HOSTS"); v != "" {
		cfg.ImageProxy.Hosts = splitList(v)
	}
	if v := os.Getenv("INVALIDATE_SCHEDULE"); v != "" {
		cfg.InvalidateSchedule = v
	}
	if v := os.Getenv("REFRESH_RATE_LIMIT"); v != "" {
		cfg.RefreshRateLimitStr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	// An empty string or "0" disables the refresh rate limit.
	if cfg.RefreshRateLimitStr != "" && cfg.RefreshRateLimitStr != "0" {
		if d, err := time.ParseDuration(cfg.RefreshRateLimitStr); err == nil {
			cfg.RefreshRateLimit = d
		}
	} else {
		cfg.RefreshRateLimit = 0
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = Default().PageSize
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	switch c.Backend {
	case "fs", "sqlite":
	default:
		return fmt.Errorf("unknown backend %q (want fs or sqlite)", c.Backend)
	}
	switch strings.ToLower(c.EmptyGameMode) {
	case "", "none", "all":
	default:
		return fmt.Errorf("unknown empty_game_mode %q (want none or all)", c.EmptyGameMode)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FindConfigFile returns the path to the first config file found in the
// standard search order, or "" if none is found.
//
// Search order:
//  1. TCG_KIOSK_CONFIG environment variable (explicit override)
//  2. ./tcg-kiosk.yaml (current working directory)
//  3. ~/.config/tcg-kiosk/config.yaml (XDG user config)
func FindConfigFile() string {
	// 1. Explicit path via environment variable.
	if p := os.Getenv("TCG_KIOSK_CONFIG"); p != "" {
		return p
	}

	// 2. Config file in the current working directory.
	if _, err := os.Stat("tcg-kiosk.yaml"); err == nil {
		return "tcg-kiosk.yaml"
	}

	// 3. XDG user config directory.
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "tcg-kiosk", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
