package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "wavesd"

// Defaults mirrored by the getters below.
const (
	DefaultResolveTimeout = 250 * time.Millisecond
	DefaultShutdownGrace  = 2 * time.Second
	DefaultChannelID      = "music_playback_channel"
	DefaultChannelName    = "Music playback"
	DefaultArtworkSize    = 256
)

type Config struct {
	Database string `koanf:"database"` // catalog path, defaults to the XDG data dir

	Log          LogConfig          `koanf:"log"`
	Session      SessionConfig      `koanf:"session"`
	Notification NotificationConfig `koanf:"notification"`
	MPRIS        MPRISConfig        `koanf:"mpris"`
	Inhibit      InhibitConfig      `koanf:"inhibit"`

	// Last.fm now-playing forwarding (enabled when fully configured)
	Lastfm LastfmConfig `koanf:"lastfm"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

// SessionConfig tunes the session manager's background work.
type SessionConfig struct {
	ResolveTimeout time.Duration `koanf:"resolve_timeout"` // bounded catalog lookups
	ShutdownGrace  time.Duration `koanf:"shutdown_grace"`  // wait for in-flight writes on teardown
	Volume         float64       `koanf:"volume"`          // 0 to 1, default 1
}

// NotificationConfig holds the playback notification settings.
type NotificationConfig struct {
	Enabled     *bool  `koanf:"enabled"` // default: true
	ChannelID   string `koanf:"channel_id"`
	ChannelName string `koanf:"channel_name"`
	Artwork     *bool  `koanf:"artwork"`      // default: true
	ArtworkSize int    `koanf:"artwork_size"` // thumbnail edge in pixels
}

// MPRISConfig controls the D-Bus media session.
type MPRISConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Name    string `koanf:"name"`    // bus name suffix
}

// InhibitConfig controls the sleep inhibitor held while playing.
type InhibitConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// LastfmConfig holds Last.fm credentials.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order; later files override earlier ones.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Database != "" {
		cfg.Database = expandPath(cfg.Database)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/wavesd/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// DatabasePath returns the catalog location, creating the XDG data directory
// when no explicit path is configured.
func (c *Config) DatabasePath() (string, error) {
	if c.Database != "" {
		return c.Database, nil
	}
	return xdg.DataFile(filepath.Join(appName, "catalog.db"))
}

// ArtworkCacheDir returns the directory used for resized artwork.
func (c *Config) ArtworkCacheDir() string {
	return filepath.Join(xdg.CacheHome, appName, "artwork")
}

// GetSessionConfig returns the session configuration with defaults applied.
func (c *Config) GetSessionConfig() SessionConfig {
	cfg := c.Session
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultShutdownGrace
	}
	if cfg.Volume <= 0 || cfg.Volume > 1 {
		cfg.Volume = 1
	}
	return cfg
}

// GetNotificationConfig returns the notification configuration with defaults applied.
func (c *Config) GetNotificationConfig() NotificationConfig {
	cfg := c.Notification
	if cfg.ChannelID == "" {
		cfg.ChannelID = DefaultChannelID
	}
	if cfg.ChannelName == "" {
		cfg.ChannelName = DefaultChannelName
	}
	if cfg.ArtworkSize <= 0 || cfg.ArtworkSize > 1024 {
		cfg.ArtworkSize = DefaultArtworkSize
	}
	return cfg
}

// NotificationsEnabled reports whether the playback notification is shown.
func (c *Config) NotificationsEnabled() bool {
	return boolOr(c.Notification.Enabled, true)
}

// ArtworkEnabled reports whether notification artwork is resolved.
func (c *Config) ArtworkEnabled() bool {
	return boolOr(c.Notification.Artwork, true)
}

// MPRISEnabled reports whether the D-Bus media session is exported.
func (c *Config) MPRISEnabled() bool {
	return boolOr(c.MPRIS.Enabled, true)
}

// MPRISName returns the MPRIS bus name suffix.
func (c *Config) MPRISName() string {
	if c.MPRIS.Name == "" {
		return appName
	}
	return c.MPRIS.Name
}

// InhibitEnabled reports whether playback holds a sleep inhibitor.
func (c *Config) InhibitEnabled() bool {
	return boolOr(c.Inhibit.Enabled, true)
}

// HasLastfmConfig returns true if now-playing forwarding is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != "" && c.Lastfm.SessionKey != ""
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
