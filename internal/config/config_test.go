package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func testHash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, cfg.Server.Address)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultMaxClients, cfg.Server.MaxClients)
	assert.Equal(t, DefaultGreeting, cfg.Server.Greeting)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, DefaultAdminShutdownTimeout, cfg.Admin.ShutdownTimeout)
	assert.Equal(t, DefaultSendTimeout, cfg.Server.SendTimeout)
}

func TestLoad_FileValues(t *testing.T) {
	hash := testHash(t)
	path := writeConfig(t, `
logging:
  level: debug
  format: JSON
server:
  address: 0.0.0.0
  port: 0
  max_clients: 3
  greeting: "220 hello"
  passive_address: 192.0.2.10
  allow_anonymous: true
  send_timeout: 500ms
users:
  - username: alice
    password_hash: "`+hash+`"
admin:
  enabled: true
  port: 9999
  shutdown_timeout: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 0, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Server.MaxClients)
	assert.Equal(t, "220 hello\r\n", cfg.Server.Greeting)
	assert.Equal(t, "192.0.2.10", cfg.Server.PassiveAddress)
	assert.True(t, cfg.Server.AllowAnonymous)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.SendTimeout)
	assert.Equal(t, map[string]string{"alice": hash}, cfg.UserHashes())
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, 9999, cfg.Admin.Port)
	assert.Equal(t, 2*time.Second, cfg.Admin.ShutdownTimeout)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  max_clients: 3\n")
	t.Setenv("HIOLOAD_FTPD_SERVER_MAX_CLIENTS", "7")
	t.Setenv("HIOLOAD_FTPD_SERVER_PORT", "2221")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Server.MaxClients)
	assert.Equal(t, 2221, cfg.Server.Port)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"hostname address", "server:\n  address: localhost\n", "Server.Address must be a dotted-decimal IPv4 address"},
		{"negative capacity", "server:\n  max_clients: -1\n", "Server.MaxClients"},
		{"port range", "server:\n  port: 70000\n", "Server.Port"},
		{"greeting code", "server:\n  greeting: \"421 go away\"\n", "Server.Greeting must be a single 220 reply line"},
		{"log level", "logging:\n  level: verbose\n", "Logging.Level must be one of"},
		{"loop cpu", "server:\n  pin_loop: true\n  loop_cpu: -2\n", "Server.LoopCPU"},
		{"bad hash", "users:\n  - username: bob\n    password_hash: plain\n", "is not a bcrypt hash"},
		{"username space", "users:\n  - username: \"b b\"\n    password_hash: x\n", "must not contain whitespace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DuplicateUsers(t *testing.T) {
	cfg := GetDefaultConfig()
	h := testHash(t)
	cfg.Users = []UserConfig{{Username: "a", PasswordHash: h}, {Username: "a", PasswordHash: h}}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate Username")
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNormalizeGreeting(t *testing.T) {
	assert.Equal(t, "220 hi\r\n", NormalizeGreeting("220 hi"))
	assert.Equal(t, "220 hi\r\n", NormalizeGreeting("220 hi\n"))
	assert.Equal(t, "220 hi\r\n", NormalizeGreeting("220 hi\r\n\r\n"))
	assert.Equal(t, DefaultGreeting, NormalizeGreeting("  "))
}

func TestInitConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, InitConfig(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Error(t, InitConfig(path, false))
	assert.NoError(t, InitConfig(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	defaults := GetDefaultConfig()
	assert.Equal(t, defaults.Logging, cfg.Logging)
	assert.Equal(t, defaults.Server, cfg.Server)
	assert.Equal(t, defaults.Admin, cfg.Admin)
	assert.Empty(t, cfg.Users)
}

func TestSaveConfig_PreservesUsers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := GetDefaultConfig()
	cfg.Users = append(cfg.Users, UserConfig{Username: "alice", PasswordHash: testHash(t)})
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Users, loaded.Users)
}
