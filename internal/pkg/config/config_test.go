package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ECG_SESSION_DIR": "/tmp/ecg",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.APIURL != "http://localhost:5000" || cfg.DeviceURL != "http://localhost:5001" {
		t.Fatalf("unexpected urls: %+v", cfg)
	}
	if cfg.Timeout != 15*time.Second || cfg.DeviceTimeout != 30*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.Timeout, cfg.DeviceTimeout)
	}
	if cfg.SessionDir != "/tmp/ecg" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected session settings: %+v", cfg)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ECG_API_URL":            "https://api.example.com",
		"ECG_TIMEOUT":            "5s",
		"ECG_DEVICE_TIMEOUT":     "10s",
		"ECG_SESSION_DIR":        "/var/lib/ecg",
		"ECG_SESSION_PASSPHRASE": "hunter2",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" || cfg.Timeout != 5*time.Second || cfg.DeviceTimeout != 10*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SessionPassphrase != "hunter2" {
		t.Fatalf("unexpected passphrase")
	}
}

func TestLoadWith_InvalidDuration(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ECG_TIMEOUT":     "soon",
		"ECG_SESSION_DIR": "/tmp/ecg",
	}))
	if err == nil {
		t.Fatalf("expected error for an invalid duration")
	}
}
