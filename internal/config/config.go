package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents ~/.inbox/config.toml.
type Config struct {
	Backend  Backend  `toml:"backend"`
	Feed     Feed     `toml:"feed"`
	WhatsApp WhatsApp `toml:"whatsapp"`
	Inbox    Inbox    `toml:"inbox"`
	Daemon   Daemon   `toml:"daemon"`
}

// Backend configures the REST message service.
type Backend struct {
	BaseURL string   `toml:"base_url"`
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout"`
}

// Feed configures the websocket push feed. An empty URL disables it.
type Feed struct {
	URL            string   `toml:"url"`
	ReconnectDelay Duration `toml:"reconnect_delay"`
}

// WhatsApp configures the linked-device push feed. An empty DeviceDB
// disables it.
type WhatsApp struct {
	DeviceDB string `toml:"device_db"`
}

// Inbox tunes the conversation core.
type Inbox struct {
	// Self lists our own addresses. They never select a conversation.
	Self []string `toml:"self"`
	// CacheSize bounds how many deselected conversations stay live. Zero
	// discards a conversation as soon as another one is selected.
	CacheSize              int  `toml:"cache_size"`
	RetainOnRefreshFailure bool `toml:"retain_on_refresh_failure"`
}

// Daemon configures the local control socket and log file.
type Daemon struct {
	Socket  string `toml:"socket"`
	LogPath string `toml:"log_path"`
}

// Duration is a time.Duration written as a string such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend: Backend{
			BaseURL: "http://localhost:8000/api",
			Timeout: Duration{15 * time.Second},
		},
		Feed: Feed{
			ReconnectDelay: Duration{3 * time.Second},
		},
		Daemon: Daemon{
			Socket:  SocketPath(),
			LogPath: LogPath(),
		},
	}
}

// Load reads config from the given path on top of Default. Returns error if
// the file is missing or invalid.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if c.Feed.URL != "" {
		u, err := url.Parse(c.Feed.URL)
		if err != nil {
			return fmt.Errorf("feed.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("feed.url: unsupported scheme %q", u.Scheme)
		}
	}
	if c.Inbox.CacheSize < 0 {
		return errors.New("inbox.cache_size must not be negative")
	}
	if c.Daemon.Socket == "" {
		return errors.New("daemon.socket is required")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
