// File: internal/config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package config loads, validates and persists the hioload-ftpd configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. HIOLOAD_FTPD_SERVER_PORT.
const EnvPrefix = "HIOLOAD_FTPD"

// Config represents the hioload-ftpd configuration.
//
// Sections:
//   - Logging: level, format and destination of log output
//   - Server: listening address, capacity, greeting and protocol switches
//   - Users: accounts accepted by USER/PASS, with bcrypt password hashes
//   - Admin: optional HTTP endpoint serving health, metrics and debug state
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Users   []UserConfig  `mapstructure:"users" validate:"unique=Username,dive" yaml:"users"`
	Admin   AdminConfig   `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format is the output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the control-connection multiplexer.
type ServerConfig struct {
	// Address is the dotted-decimal IPv4 address to bind.
	Address string `mapstructure:"address" validate:"required,ipv4" yaml:"address"`

	// Port is the TCP port to bind; 0 picks an ephemeral port.
	Port int `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`

	// MaxClients is the number of concurrent sessions; the listener is not counted.
	MaxClients int `mapstructure:"max_clients" validate:"required,gt=0,lte=65535" yaml:"max_clients"`

	// Greeting is written to every accepted client. A trailing CRLF is added if missing.
	Greeting string `mapstructure:"greeting" validate:"required,greeting" yaml:"greeting"`

	// PassiveAddress is the IPv4 address used for PASV; empty uses the control connection's local address.
	PassiveAddress string `mapstructure:"passive_address" validate:"omitempty,ipv4" yaml:"passive_address,omitempty"`

	// AllowAnonymous accepts "anonymous" and "ftp" with any password.
	AllowAnonymous bool `mapstructure:"allow_anonymous" yaml:"allow_anonymous"`

	// SendTimeout bounds each reply write; a client that stops reading is
	// disconnected once it expires.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gte=0" yaml:"send_timeout"`

	// PinLoop binds the event loop thread to LoopCPU.
	PinLoop bool `mapstructure:"pin_loop" yaml:"pin_loop"`
	LoopCPU int  `mapstructure:"loop_cpu" validate:"gte=0" yaml:"loop_cpu"`
}

// UserConfig is a login account.
type UserConfig struct {
	Username     string `mapstructure:"username" validate:"required,max=32,username" yaml:"username"`
	PasswordHash string `mapstructure:"password_hash" validate:"required,bcrypt" yaml:"password_hash"`
}

// AdminConfig configures the HTTP admin endpoint.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" validate:"omitempty,ipv4" yaml:"address"`
	Port    int    `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`

	// ShutdownTimeout bounds the graceful stop of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0" yaml:"shutdown_timeout"`
}

// UserHashes returns the configured users as username to bcrypt hash.
func (c *Config) UserHashes() map[string]string {
	out := make(map[string]string, len(c.Users))
	for _, u := range c.Users {
		out[u.Username] = u.PasswordHash
	}
	return out
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HIOLOAD_FTPD_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath searches the default location. A missing file is not an
// error: defaults (plus environment overrides) are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML format with owner-only permissions,
// since the file carries password hashes.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// InitConfig writes the default configuration to path.
// It refuses to overwrite an existing file unless force is set.
func InitConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}
	return SaveConfig(GetDefaultConfig(), path)
}

// setupViper configures environment overrides, defaults and the file location.
func setupViper(v *viper.Viper, configPath string) {
	// Example: HIOLOAD_FTPD_SERVER_MAX_CLIENTS=50
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Registered defaults make every key visible to AutomaticEnv during Unmarshal.
	d := GetDefaultConfig()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_clients", d.Server.MaxClients)
	v.SetDefault("server.greeting", d.Server.Greeting)
	v.SetDefault("server.passive_address", d.Server.PassiveAddress)
	v.SetDefault("server.allow_anonymous", d.Server.AllowAnonymous)
	v.SetDefault("server.send_timeout", d.Server.SendTimeout.String())
	v.SetDefault("server.pin_loop", d.Server.PinLoop)
	v.SetDefault("server.loop_cpu", d.Server.LoopCPU)
	v.SetDefault("admin.enabled", d.Admin.Enabled)
	v.SetDefault("admin.address", d.Admin.Address)
	v.SetDefault("admin.port", d.Admin.Port)
	v.SetDefault("admin.shutdown_timeout", d.Admin.ShutdownTimeout.String())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings like "5s" and raw numbers to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/hioload-ftpd, ~/.config/hioload-ftpd,
// or "." when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hioload-ftpd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "hioload-ftpd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
