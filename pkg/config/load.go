package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"deskshell/pkg/kv"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DESKD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("viewport.width", cfg.Viewport.Width)
	v.SetDefault("viewport.height", cfg.Viewport.Height)
	v.SetDefault("viewport.taskbar_height", cfg.Viewport.TaskbarHeight)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("persistence.session_key", cfg.Persistence.SessionKey)
	v.SetDefault("persistence.prefs_key", cfg.Persistence.PrefsKey)
	v.SetDefault("persistence.write_delay_ms", cfg.Persistence.WriteDelayMS)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.tls_cert", cfg.HTTP.TLSCert)
	v.SetDefault("http.tls_key", cfg.HTTP.TLSKey)
	v.SetDefault("mcp.transport", cfg.MCP.Transport)
	v.SetDefault("mcp.addr", cfg.MCP.Addr)
	v.SetDefault("events.buffer", cfg.Events.Buffer)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Storage.Path = expandEnv(cfg.Storage.Path)
	cfg.HTTP.TLSCert = expandEnv(cfg.HTTP.TLSCert)
	cfg.HTTP.TLSKey = expandEnv(cfg.HTTP.TLSKey)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func Validate(cfg Config) error {
	if !(cfg.Viewport.Width > 0) || !(cfg.Viewport.Height > 0) {
		return fmt.Errorf("viewport.width and viewport.height must be positive")
	}
	if cfg.Viewport.TaskbarHeight < 0 || cfg.Viewport.TaskbarHeight >= cfg.Viewport.Height {
		return fmt.Errorf("viewport.taskbar_height must be in [0, viewport.height)")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case kv.BackendMemory:
	case kv.BackendFile, kv.BackendSQLite:
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			return fmt.Errorf("storage.path is required for backend %q", cfg.Storage.Backend)
		}
	default:
		return fmt.Errorf("unsupported storage.backend %q", cfg.Storage.Backend)
	}
	if cfg.Persistence.SessionKey == "" || cfg.Persistence.PrefsKey == "" {
		return fmt.Errorf("persistence.session_key and persistence.prefs_key must be set")
	}
	if cfg.Persistence.SessionKey == cfg.Persistence.PrefsKey {
		return fmt.Errorf("persistence.session_key and persistence.prefs_key must differ")
	}
	switch cfg.MCP.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("unsupported mcp.transport %q", cfg.MCP.Transport)
	}
	if (cfg.HTTP.TLSCert == "") != (cfg.HTTP.TLSKey == "") {
		return fmt.Errorf("http.tls_cert and http.tls_key must be set together")
	}
	return nil
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
