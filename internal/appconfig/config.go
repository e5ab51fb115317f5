package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int             `mapstructure:"config_version" yaml:"config_version"`
	Server        ServerConfig    `mapstructure:"server" yaml:"server"`
	Store         StoreConfig     `mapstructure:"store" yaml:"store"`
	Discovery     DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Client        ClientConfig    `mapstructure:"client" yaml:"client"`
	Session       SessionConfig   `mapstructure:"session" yaml:"session"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServerConfig configures the room relay.
type ServerConfig struct {
	Addr                  string `mapstructure:"addr" yaml:"addr"`
	BackupIntervalSeconds int    `mapstructure:"backup_interval_seconds" yaml:"backup_interval_seconds"`
}

// StoreConfig locates the room snapshot database. An empty path keeps rooms
// in memory.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DiscoveryConfig controls LAN advertisement of hosted boards.
type DiscoveryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Service string `mapstructure:"service" yaml:"service"`
}

// ClientConfig configures the desktop client link.
type ClientConfig struct {
	ServerURL        string `mapstructure:"server_url" yaml:"server_url"`
	Room             string `mapstructure:"room" yaml:"room"`
	ReconnectSeconds int    `mapstructure:"reconnect_seconds" yaml:"reconnect_seconds"`
}

// SessionConfig tunes the client event loop timers.
type SessionConfig struct {
	ReactionIntervalMS int `mapstructure:"reaction_interval_ms" yaml:"reaction_interval_ms"`
	PruneIntervalMS    int `mapstructure:"prune_interval_ms" yaml:"prune_interval_ms"`
	ReactionTTLMS      int `mapstructure:"reaction_ttl_ms" yaml:"reaction_ttl_ms"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Server: ServerConfig{
			Addr:                  ":8888",
			BackupIntervalSeconds: 5,
		},
		Store: StoreConfig{
			Path: filepath.Join(home, ".livecanvas", "rooms.db"),
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
			Service: "_livecanvas._tcp",
		},
		Client: ClientConfig{
			ServerURL:        "ws://127.0.0.1:8888",
			Room:             "main",
			ReconnectSeconds: 2,
		},
		Session: SessionConfig{
			ReactionIntervalMS: 100,
			PruneIntervalMS:    1000,
			ReactionTTLMS:      3000,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".livecanvas", "config.yaml"), nil
}
