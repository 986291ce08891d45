// File: internal/config/defaults.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import (
	"strings"
	"time"
)

// Default values.
const (
	DefaultAddress     = "127.0.0.1"
	DefaultPort        = 2121
	DefaultMaxClients  = 10
	DefaultGreeting    = "220 Service ready for new user.\r\n"
	DefaultSendTimeout = 2 * time.Second

	DefaultAdminAddress         = "127.0.0.1"
	DefaultAdminPort            = 9121
	DefaultAdminShutdownTimeout = 5 * time.Second
)

// ApplyDefaults sets default values for any unspecified configuration fields
// and normalizes the ones that have a canonical form.
//
// Zero values are replaced with defaults; explicit values are preserved.
// Server.Port keeps 0 only when set explicitly through Load, so it is not defaulted here.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyAdminDefaults(&cfg.Admin)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.MaxClients == 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	cfg.Greeting = NormalizeGreeting(cfg.Greeting)
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Address == "" {
		cfg.Address = DefaultAdminAddress
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultAdminPort
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultAdminShutdownTimeout
	}
}

// NormalizeGreeting returns greeting terminated by exactly one CRLF, or the
// default greeting when it is blank.
func NormalizeGreeting(greeting string) string {
	g := strings.TrimRight(greeting, "\r\n")
	if strings.TrimSpace(g) == "" {
		return DefaultGreeting
	}
	return g + "\r\n"
}

// GetDefaultConfig returns a configuration with every default applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{Port: DefaultPort},
		Users:  []UserConfig{},
	}
	ApplyDefaults(cfg)
	return cfg
}
