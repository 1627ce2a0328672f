package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/networthpro/retirement-engine/internal/logging"
)

// ServerConfig holds process-level settings for the serve command
type ServerConfig struct {
	Addr   string
	DBPath string
	Log    logging.Config
}

// LoadServerConfig loads settings from networth.yaml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with NETWORTH_ prefix (e.g., NETWORTH_SERVER_ADDR)
// 2. networth.yaml
// 3. Built-in defaults
func LoadServerConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("networth")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/networth")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("NETWORTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &ServerConfig{
		Addr:   v.GetString("server.addr"),
		DBPath: v.GetString("server.db_path"),
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	applyServerDefaults(cfg)
	return cfg, nil
}

// applyServerDefaults sets default values for any empty config fields
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "networth.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
