// Package config loads quill settings from quill.yaml and QUILL_* variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/quill/pkg/workflow"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "QUILL"

// Redis configures the redis backend.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	// Lock enables the cross-process lock around read-modify-write saves.
	Lock bool `mapstructure:"lock"`
}

// SQLite configures the sqlite backend.
type SQLite struct {
	Path string `mapstructure:"path"`
}

// Store selects and configures the key-value backend.
type Store struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Redis   Redis  `mapstructure:"redis"`
	SQLite  SQLite `mapstructure:"sqlite"`
	// EncryptionKey is a base64 AES-256 key; empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys decrypt values written before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// LogOperations logs every store call at debug level.
	LogOperations bool `mapstructure:"log_operations"`
}

// Autosave configures the save timers of the editor.
type Autosave struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Interval time.Duration `mapstructure:"interval"`
}

// Suggest configures the rewrite suggestion service.
type Suggest struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Server configures the HTTP and MCP servers.
type Server struct {
	Port    int  `mapstructure:"port"`
	MCPPort int  `mapstructure:"mcp_port"`
	Metrics bool `mapstructure:"metrics"`
}

// Log configures the process logger.
type Log struct {
	Level string `mapstructure:"level"`
}

// Config is the full set of quill settings.
type Config struct {
	Store    Store               `mapstructure:"store"`
	Session  string              `mapstructure:"session"`
	Autosave Autosave            `mapstructure:"autosave"`
	Workflow workflow.Thresholds `mapstructure:"workflow"`
	Suggest  Suggest             `mapstructure:"suggest"`
	Server   Server              `mapstructure:"server"`
	Log      Log                 `mapstructure:"log"`
}

// SetDefaults registers the default of every key, which also makes each key
// visible to environment lookups.
func SetDefaults(v *viper.Viper) {
	t := workflow.DefaultThresholds()

	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", defaultDir())
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "quill:")
	v.SetDefault("store.redis.lock", false)
	v.SetDefault("store.sqlite.path", filepath.Join(defaultDir(), "quill.db"))
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.log_operations", false)
	v.SetDefault("session", "")
	v.SetDefault("autosave.debounce", time.Second)
	v.SetDefault("autosave.interval", time.Minute)
	v.SetDefault("workflow.min_paragraph_words", t.MinParagraphWords)
	v.SetDefault("workflow.min_drafted_ratio", t.MinDraftedRatio)
	v.SetDefault("workflow.min_edits", t.MinEdits)
	v.SetDefault("suggest.endpoint", "")
	v.SetDefault("suggest.timeout", 30*time.Second)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mcp_port", 8081)
	v.SetDefault("server.metrics", true)
	v.SetDefault("log.level", "info")
}

func defaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "quill")
	}
	return ".quill"
}

// New returns a viper instance that reads cfgFile, or quill.yaml from the
// working directory and ~/.config/quill when cfgFile is empty.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("quill")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "quill"))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the configuration. A missing default config file is not an
// error; a missing explicit one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendFile && c.Store.Dir == "" {
		return errors.New("config: store.dir is required for the file backend")
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLite.Path == "" {
		return errors.New("config: store.sqlite.path is required for the sqlite backend")
	}
	if c.Store.EncryptionKey != "" {
		if _, err := DecodeKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("config: store.encryption_key: %w", err)
		}
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := DecodeKey(k); err != nil {
			return fmt.Errorf("config: store.fallback_keys[%d]: %w", i, err)
		}
	}
	if c.Autosave.Debounce <= 0 {
		return errors.New("config: autosave.debounce must be positive")
	}
	if c.Autosave.Interval < 0 {
		return errors.New("config: autosave.interval must not be negative")
	}
	if c.Workflow.MinDraftedRatio < 0 || c.Workflow.MinDraftedRatio > 1 {
		return errors.New("config: workflow.min_drafted_ratio must be within 0..1")
	}
	if c.Workflow.MinParagraphWords < 0 || c.Workflow.MinEdits < 0 {
		return errors.New("config: workflow thresholds must not be negative")
	}
	return nil
}

// DecodeKey decodes a base64 AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
