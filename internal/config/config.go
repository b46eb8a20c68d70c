package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

const QR_IMAGE_SIZE = 512

// AlertConfig holds the optional operator alert mail settings. Alerts are
// only sent when To is non-empty.
type AlertConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

type Config struct {
	// Secret key for signing admin tokens. Must be set in production.
	Secret string `mapstructure:"secret"`
	// Password for the admin panel login.
	AdminPassword string `mapstructure:"admin_password"`
	// Admin token TTL in days. Fixed window set at issuance, not renewed on use.
	AdminAuthTTL uint   `mapstructure:"admin_auth_ttl"`
	LogLevel     string `mapstructure:"log_level"`

	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`

	// Base URL for QR code links. May be relative, e.g. /tablets/, or
	// absolute, e.g. https://example.com/tablets/. Empty means auto-detect
	// from the request.
	BaseURL string `mapstructure:"base_url"`

	// Address the HTTP server listens on.
	Listen string `mapstructure:"listen"`

	// Dashboard re-poll interval in seconds. Freshness model is periodic
	// refetch, not push.
	PollInterval uint `mapstructure:"poll_interval"`

	Storage Storage `mapstructure:"storage"`

	Alert AlertConfig `mapstructure:"alert"`
}

var Cfg *Config

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from environment variables and returns a Config struct.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvPrefix("")

	if len(configFile) > 0 {
		for _, path := range configFile {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	// Convert relative sqlite path to absolute instance folder
	if cfg.Storage.SQLite != nil {
		if cfg.Storage.SQLite.Path == ":memory:" {
			// In-memory database, do nothing
		} else if !os.IsPathSeparator(cfg.Storage.SQLite.Path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), cfg.Storage.SQLite.Path)
		}
	}

	// Warn if secret is missing - this is a critical security setting for production
	if cfg.Secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("SECRET configuration variable is required in production")
		} else {
			slog.Warn("Secret is not set. Do not use in production.")
		}
	}

	if cfg.AdminPassword == "" {
		slog.Warn("Admin password is not set, admin login is disabled")
	}

	return &cfg, nil
}
