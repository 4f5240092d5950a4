package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Fatalf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.CooldownDuration != Duration(30*time.Second) {
		t.Fatalf("unexpected cooldown %v", cfg.CooldownDuration)
	}
	if cfg.ReconnectPerMinute <= 0 || cfg.ReconnectBurst <= 0 {
		t.Fatalf("reconnect limits must default positive: %+v", cfg)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte("server_url: https://events.example.com\nfeed_url: wss://events.example.com/ws\ncooldown_duration: 45s\nmedia:\n  bucket: event-media\n  region: eu-west-1\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "https://events.example.com" {
		t.Fatalf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.FeedURL != "wss://events.example.com/ws" {
		t.Fatalf("unexpected feed url %q", cfg.FeedURL)
	}
	if cfg.CooldownDuration != Duration(45*time.Second) {
		t.Fatalf("unexpected cooldown %v", cfg.CooldownDuration)
	}
	if cfg.Media.Bucket != "event-media" {
		t.Fatalf("unexpected media config %+v", cfg.Media)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server_url: https://file.example.com\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("EVENTPULSE_SERVER_URL", "https://env.example.com")
	t.Setenv("EVENTPULSE_COOLDOWN", "2m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "https://env.example.com" {
		t.Fatalf("expected env override got %q", cfg.ServerURL)
	}
	if cfg.CooldownDuration != Duration(2*time.Minute) {
		t.Fatalf("expected env cooldown got %v", cfg.CooldownDuration)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.ServerURL = "https://saved.example.com"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ServerURL != "https://saved.example.com" {
		t.Fatalf("round trip lost server url: %q", loaded.ServerURL)
	}
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("EVENTPULSE_COOLDOWN", "soon")
	t.Setenv("EVENTPULSE_RECONNECT_BURST", "many")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CooldownDuration != Duration(30*time.Second) {
		t.Fatalf("expected default cooldown got %v", cfg.CooldownDuration)
	}
	if cfg.ReconnectBurst != Default().ReconnectBurst {
		t.Fatalf("expected default burst got %d", cfg.ReconnectBurst)
	}
}
