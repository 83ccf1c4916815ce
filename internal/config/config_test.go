package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.True(t, cfg.HostsConfig.BackupBeforeUpdate)
	assert.Equal(t, DefaultBackupPath, cfg.HostsConfig.BackupPath)
	assert.Equal(t, DefaultUpdateIntervalHours, cfg.SchedulerConfig.UpdateIntervalHours)
	assert.Equal(t, DefaultBackoffMinutes, cfg.SchedulerConfig.BackoffMinutes)
	assert.Equal(t, DefaultFetchTimeoutSecs, cfg.FetchConfig.TimeoutSeconds)
	assert.True(t, cfg.NotificationConfig.NotifyOnFailure)
	assert.False(t, cfg.NotificationConfig.NotifyOnSuccess)
	assert.False(t, cfg.ServerConfig.Enabled)
	assert.Empty(t, cfg.HostsConfig.Sources)
}

func TestLoadGlobalConfig_YAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
hosts:
  hosts_sources:
    - "https://example.com/hosts.txt"
  file_path: "/tmp/hosts"
  backup_before_update: false
scheduler:
  update_interval_hours: 4
  backoff_minutes: 15
`)

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/hosts.txt"}, cfg.HostsConfig.Sources)
	assert.Equal(t, "/tmp/hosts", cfg.HostsConfig.FilePath)
	assert.False(t, cfg.HostsConfig.BackupBeforeUpdate)
	assert.Equal(t, 4, cfg.SchedulerConfig.UpdateIntervalHours)
	assert.Equal(t, 15, cfg.SchedulerConfig.BackoffMinutes)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultFetchTimeoutSecs, cfg.FetchConfig.TimeoutSeconds)
}

func TestLoadGlobalConfig_JSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
  "hosts": {"hosts_sources": ["https://example.com/hosts.txt"]}
}`)

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/hosts.txt"}, cfg.HostsConfig.Sources)
}

func TestLoadGlobalConfig_MissingProvidedPath(t *testing.T) {
	_, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "hosts: [not a mapping")

	_, err := LoadGlobalConfig(path)
	assert.Error(t, err)
}

func validTestConfig() *GlobalConfig {
	cfg := NewDefaultGlobalConfig()
	cfg.HostsConfig.Sources = []string{"https://example.com/hosts.txt"}
	return cfg
}

func TestValidateConfig_Valid(t *testing.T) {
	assert.NoError(t, ValidateConfig(validTestConfig()))
}

func TestValidateConfig_NoSources(t *testing.T) {
	cfg := validTestConfig()
	cfg.HostsConfig.Sources = nil

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sources")
}

func TestValidateConfig_BadSourceScheme(t *testing.T) {
	cfg := validTestConfig()
	cfg.HostsConfig.Sources = []string{"ftp://example.com/hosts.txt"}

	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_BackupPathRequiredWhenEnabled(t *testing.T) {
	cfg := validTestConfig()
	cfg.HostsConfig.BackupBeforeUpdate = true
	cfg.HostsConfig.BackupPath = ""

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup_path")
}

func TestValidateConfig_BackoffMustBeShorterThanInterval(t *testing.T) {
	cfg := validTestConfig()
	cfg.SchedulerConfig.UpdateIntervalHours = 1
	cfg.SchedulerConfig.BackoffMinutes = 60

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff_minutes")
}

func TestValidateConfig_BadLogLevel(t *testing.T) {
	cfg := validTestConfig()
	cfg.LogConfig.LogLevel = "verbose"

	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_ServerNeedsListenAddr(t *testing.T) {
	cfg := validTestConfig()
	cfg.ServerConfig.Enabled = true
	cfg.ServerConfig.ListenAddr = ""

	assert.Error(t, ValidateConfig(cfg))
}

func TestGetConfigPath_FlagMissingFile(t *testing.T) {
	assert.Empty(t, GetConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestGetConfigPath_EnvVariable(t *testing.T) {
	path := writeConfigFile(t, "custom.yaml", "hosts: {}\n")
	t.Setenv("HOSTSYNC_CONFIG_PATH", path)

	assert.Equal(t, path, GetConfigPath(""))
}

func TestSchedulerConfig_Durations(t *testing.T) {
	sc := SchedulerConfig{UpdateIntervalHours: 2, BackoffMinutes: 10}

	assert.Equal(t, "2h0m0s", sc.Interval().String())
	assert.Equal(t, "10m0s", sc.Backoff().String())
}
