// Package config loads the settings shared by the ecgctl front end and the
// API client it drives.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	APIURL            string        `env:"ECG_API_URL,            default=http://localhost:5000"`
	DeviceURL         string        `env:"ECG_DEVICE_URL,         default=http://localhost:5001"`
	Timeout           time.Duration `env:"ECG_TIMEOUT,            default=15s"`
	DeviceTimeout     time.Duration `env:"ECG_DEVICE_TIMEOUT,     default=30s"`
	SessionDir        string        `env:"ECG_SESSION_DIR"`
	SessionPassphrase string        `env:"ECG_SESSION_PASSPHRASE"`
	LogLevel          string        `env:"LOG_LEVEL,              default=warn"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration from l. An empty session directory falls
// back to the user config directory.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.SessionDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve session dir: %w", err)
		}
		cfg.SessionDir = filepath.Join(base, "ecg-health-iq")
	}
	return &cfg, nil
}
