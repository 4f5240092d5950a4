package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use strings like "45s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// MediaConfig points the media resolver at the catalog's object store.
type MediaConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// Config captures the runtime configuration for the EventPulse client.
type Config struct {
	// ServerURL is the base URL of the request/response API.
	ServerURL string `yaml:"server_url"`
	// FeedURL is the websocket endpoint delivering catalog snapshots.
	FeedURL string `yaml:"feed_url"`
	// DataDir holds the durable key/value store.
	DataDir string `yaml:"data_dir"`

	LogLevel string `yaml:"log_level"`

	// CooldownDuration gates successive recommendation requests.
	CooldownDuration Duration `yaml:"cooldown_duration"`

	// ReconnectPerMinute and ReconnectBurst bound how aggressively the feed
	// supervisor re-dials after a dropped connection.
	ReconnectPerMinute int `yaml:"reconnect_per_minute"`
	ReconnectBurst     int `yaml:"reconnect_burst"`

	Media MediaConfig `yaml:"media"`
}

// Default returns an in-memory default configuration.
func Default() Config {
	return Config{
		ServerURL:          "http://localhost:8000",
		FeedURL:            "ws://localhost:8000/ws",
		DataDir:            defaultDataDir(),
		LogLevel:           "info",
		CooldownDuration:   Duration(30 * time.Second),
		ReconnectPerMinute: 12,
		ReconnectBurst:     3,
	}
}

// Load reads configuration from an optional YAML file and then applies
// environment-variable overrides. A missing file is not an error; the
// defaults are used as the base in that case.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		}
	}

	cfg.ServerURL = getString("EVENTPULSE_SERVER_URL", cfg.ServerURL)
	cfg.FeedURL = getString("EVENTPULSE_FEED_URL", cfg.FeedURL)
	cfg.DataDir = getString("EVENTPULSE_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getString("EVENTPULSE_LOG_LEVEL", cfg.LogLevel)
	cfg.CooldownDuration = Duration(getDuration("EVENTPULSE_COOLDOWN", time.Duration(cfg.CooldownDuration)))
	cfg.ReconnectPerMinute = getInt("EVENTPULSE_RECONNECT_PER_MINUTE", cfg.ReconnectPerMinute)
	cfg.ReconnectBurst = getInt("EVENTPULSE_RECONNECT_BURST", cfg.ReconnectBurst)
	cfg.Media.Bucket = getString("EVENTPULSE_MEDIA_BUCKET", cfg.Media.Bucket)
	cfg.Media.Region = getString("EVENTPULSE_MEDIA_REGION", cfg.Media.Region)
	cfg.Media.Endpoint = getString("EVENTPULSE_MEDIA_ENDPOINT", cfg.Media.Endpoint)
	cfg.Media.PublicBaseURL = getString("EVENTPULSE_MEDIA_BASE_URL", cfg.Media.PublicBaseURL)

	cfg.normalize()

	return cfg, nil
}

// Save writes the configuration to the given path, creating the parent
// directory when needed. The write goes through a temp file and rename so a
// crash never leaves a truncated config behind.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}

	cfg.normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventpulse-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func (c *Config) normalize() {
	def := Default()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.FeedURL == "" {
		c.FeedURL = def.FeedURL
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.CooldownDuration <= 0 {
		c.CooldownDuration = def.CooldownDuration
	}
	if c.ReconnectPerMinute <= 0 {
		c.ReconnectPerMinute = def.ReconnectPerMinute
	}
	if c.ReconnectBurst <= 0 {
		c.ReconnectBurst = def.ReconnectBurst
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eventpulse"
	}
	return filepath.Join(home, ".eventpulse")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
