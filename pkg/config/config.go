// Package config loads deskd configuration from YAML with defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"deskshell/pkg/kv"
	"deskshell/pkg/wm"
)

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int               `mapstructure:"config_version" yaml:"config_version"`
	Viewport      ViewportConfig    `mapstructure:"viewport" yaml:"viewport"`
	Storage       StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Persistence   PersistenceConfig `mapstructure:"persistence" yaml:"persistence"`
	HTTP          HTTPConfig        `mapstructure:"http" yaml:"http"`
	MCP           MCPConfig         `mapstructure:"mcp" yaml:"mcp"`
	Events        EventsConfig      `mapstructure:"events" yaml:"events"`
}

// ViewportConfig is the initial browser size and the taskbar height
// reserved at the bottom.
type ViewportConfig struct {
	Width         float64 `mapstructure:"width" yaml:"width"`
	Height        float64 `mapstructure:"height" yaml:"height"`
	TaskbarHeight float64 `mapstructure:"taskbar_height" yaml:"taskbar_height"`
}

// StorageConfig selects the key/value backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// PersistenceConfig controls the keys and debounce of window persistence.
type PersistenceConfig struct {
	SessionKey   string `mapstructure:"session_key" yaml:"session_key"`
	PrefsKey     string `mapstructure:"prefs_key" yaml:"prefs_key"`
	WriteDelayMS int    `mapstructure:"write_delay_ms" yaml:"write_delay_ms"`
}

// WriteDelay returns the debounce as a duration.
func (p PersistenceConfig) WriteDelay() time.Duration {
	return time.Duration(p.WriteDelayMS) * time.Millisecond
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	TLSCert string `mapstructure:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key" yaml:"tls_key"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Addr      string `mapstructure:"addr" yaml:"addr"`
}

// EventsConfig sizes the per-subscriber event buffer.
type EventsConfig struct {
	Buffer int `mapstructure:"buffer" yaml:"buffer"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Viewport: ViewportConfig{
			Width:         1280,
			Height:        720,
			TaskbarHeight: 40,
		},
		Storage: StorageConfig{
			Backend: kv.BackendSQLite,
			Path:    filepath.Join(home, ".deskshell", "deskshell.db"),
		},
		Persistence: PersistenceConfig{
			SessionKey:   wm.DefaultSessionKey,
			PrefsKey:     wm.DefaultPrefsKey,
			WriteDelayMS: int(wm.DefaultWriteDelay / time.Millisecond),
		},
		HTTP: HTTPConfig{
			Addr: ":27490",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":27491",
		},
		Events: EventsConfig{
			Buffer: 256,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".deskshell", "config.yaml"), nil
}
