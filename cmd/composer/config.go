package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hagever/homelab-composer/internal/core/caddy"
	"github.com/hagever/homelab-composer/internal/core/inventory"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Caddy     CaddyConfig     `mapstructure:"caddy"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CaddyConfig holds label allocation configuration.
type CaddyConfig struct {
	Prefix     string `mapstructure:"prefix"`
	RootDomain string `mapstructure:"root_domain"`

	// TLSDNS is the certificate issuance directive added to the root block.
	// Empty leaves issuance to Caddy's defaults.
	TLSDNS string `mapstructure:"tls_dns"`

	// Redirect is one of "none", "site" or "scoped".
	Redirect string `mapstructure:"redirect"`

	// Precedence is "upstream" or "options".
	Precedence string `mapstructure:"precedence"`
}

// InventoryConfig holds the host-specific values of the service inventory.
type InventoryConfig struct {
	MediaRoot   string `mapstructure:"media_root"`
	LibraryRoot string `mapstructure:"library_root"`
	ConfigsRoot string `mapstructure:"configs_root"`
	MainHost    string `mapstructure:"main_host"`
	Timezone    string `mapstructure:"timezone"`
	PUID        int    `mapstructure:"puid"`
	PGID        int    `mapstructure:"pgid"`
	ScanRange   string `mapstructure:"scan_range"`
}

// AllocatorConfig converts the caddy section into an allocator config.
func (c CaddyConfig) AllocatorConfig() (caddy.Config, error) {
	redirect, err := caddy.ParseRedirectMode(strings.ToLower(c.Redirect))
	if err != nil {
		return caddy.Config{}, fmt.Errorf("caddy.redirect: %w", err)
	}
	precedence, err := caddy.ParsePrecedence(strings.ToLower(c.Precedence))
	if err != nil {
		return caddy.Config{}, fmt.Errorf("caddy.precedence: %w", err)
	}
	return caddy.Config{
		Prefix:     c.Prefix,
		RootDomain: c.RootDomain,
		TLSDNS:     c.TLSDNS,
		Redirect:   redirect,
		Precedence: precedence,
	}, nil
}

// Settings converts the inventory section into inventory settings.
func (c InventoryConfig) Settings() inventory.Settings {
	return inventory.Settings{
		MediaRoot:   c.MediaRoot,
		LibraryRoot: c.LibraryRoot,
		ConfigsRoot: c.ConfigsRoot,
		MainHost:    c.MainHost,
		Timezone:    c.Timezone,
		PUID:        c.PUID,
		PGID:        c.PGID,
		ScanRange:   c.ScanRange,
	}
}

// =============================================================================
// Config Loading
// =============================================================================

// flagKeys maps command-line flags to config keys.
// Flags only override a key when set explicitly.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"root-domain": "caddy.root_domain",
	"tls-dns":     "caddy.tls_dns",
	"redirect":    "caddy.redirect",
	"precedence":  "caddy.precedence",
}

// LoadConfig loads configuration from defaults, file, environment and flags,
// in increasing order of priority. flags may be nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := inventory.DefaultSettings()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("caddy.prefix", caddy.DefaultPrefix)
	v.SetDefault("caddy.root_domain", caddy.DefaultRootDomain)
	v.SetDefault("caddy.tls_dns", "")
	v.SetDefault("caddy.redirect", string(caddy.RedirectNone))
	v.SetDefault("caddy.precedence", string(caddy.PrecedenceUpstream))
	v.SetDefault("inventory.media_root", defaults.MediaRoot)
	v.SetDefault("inventory.library_root", defaults.LibraryRoot)
	v.SetDefault("inventory.configs_root", defaults.ConfigsRoot)
	v.SetDefault("inventory.main_host", defaults.MainHost)
	v.SetDefault("inventory.timezone", defaults.Timezone)
	v.SetDefault("inventory.puid", defaults.PUID)
	v.SetDefault("inventory.pgid", defaults.PGID)
	v.SetDefault("inventory.scan_range", defaults.ScanRange)

	// Load from file if provided; an explicitly named file must exist
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("COMPOSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to w (stderr in main) so a manifest on stdout stays clean.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// SetupLoaderLogging routes the compose loader's logrus output to w with the
// same level and format as the application logger.
func SetupLoaderLogging(cfg *Config, w io.Writer) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = logrus.InfoLevel
	}

	logrus.SetOutput(w)
	logrus.SetLevel(level)
	if strings.ToLower(cfg.Log.Format) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	}
}
