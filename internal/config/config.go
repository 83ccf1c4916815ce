package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"hostsync/internal/common"
)

// GlobalConfig is the root configuration for hostsync.
type GlobalConfig struct {
	HostsConfig        HostsConfig        `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	FetchConfig        FetchConfig        `json:"fetch,omitempty" yaml:"fetch,omitempty"`
	SchedulerConfig    SchedulerConfig    `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`
	LogConfig          LogConfig          `json:"log,omitempty" yaml:"log,omitempty"`
	NotificationConfig NotificationConfig `json:"notification,omitempty" yaml:"notification,omitempty"`
	HistoryConfig      HistoryConfig      `json:"history,omitempty" yaml:"history,omitempty"`
	ServerConfig       ServerConfig       `json:"server,omitempty" yaml:"server,omitempty"`
}

// HostsConfig describes the managed hosts document, its sources and its backup slot.
type HostsConfig struct {
	Sources            []string `json:"hosts_sources,omitempty" yaml:"hosts_sources,omitempty" validate:"required,min=1,dive,sourceurl"`
	FilePath           string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	BackupBeforeUpdate bool     `json:"backup_before_update" yaml:"backup_before_update"`
	BackupPath         string   `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
}

// FetchConfig configures the per-source HTTP fetch.
type FetchConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	UserAgent      string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// SchedulerConfig defines the update cadence and the cool-down after transient errors.
type SchedulerConfig struct {
	UpdateIntervalHours int `json:"update_interval_hours,omitempty" yaml:"update_interval_hours,omitempty" validate:"omitempty,min=1"`
	BackoffMinutes      int `json:"backoff_minutes,omitempty" yaml:"backoff_minutes,omitempty" validate:"omitempty,min=1"`
}

// Interval returns the normal tick interval.
func (sc SchedulerConfig) Interval() time.Duration {
	return time.Duration(sc.UpdateIntervalHours) * time.Hour
}

// Backoff returns the shortened retry interval used after transient failures.
func (sc SchedulerConfig) Backoff() time.Duration {
	return time.Duration(sc.BackoffMinutes) * time.Minute
}

// LogConfig defines configuration for logging
type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

// NotificationConfig configures operator notifications via Discord webhook.
type NotificationConfig struct {
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	NotifyOnSuccess   bool   `json:"notify_on_success" yaml:"notify_on_success"`
	NotifyOnFailure   bool   `json:"notify_on_failure" yaml:"notify_on_failure"`
}

// HistoryConfig configures the optional sqlite journal of update outcomes.
// An empty path disables the journal.
type HistoryConfig struct {
	SQLiteDBPath string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty"`
}

// ServerConfig configures the optional status/metrics HTTP server.
type ServerConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}

// NewDefaultGlobalConfig returns a configuration populated with defaults.
// hosts_sources has no default and must come from the config file.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		HostsConfig: HostsConfig{
			Sources:            []string{},
			FilePath:           "",
			BackupBeforeUpdate: true,
			BackupPath:         DefaultBackupPath,
		},
		FetchConfig: FetchConfig{
			TimeoutSeconds: DefaultFetchTimeoutSecs,
			UserAgent:      DefaultFetchUserAgent,
		},
		SchedulerConfig: SchedulerConfig{
			UpdateIntervalHours: DefaultUpdateIntervalHours,
			BackoffMinutes:      DefaultBackoffMinutes,
		},
		LogConfig: LogConfig{
			LogFile:       DefaultLogFile,
			LogFormat:     DefaultLogFormat,
			LogLevel:      DefaultLogLevel,
			MaxLogBackups: DefaultMaxLogBackups,
			MaxLogSizeMB:  DefaultMaxLogSizeMB,
		},
		NotificationConfig: NotificationConfig{
			NotifyOnSuccess: false,
			NotifyOnFailure: true,
		},
		HistoryConfig: HistoryConfig{
			SQLiteDBPath: DefaultHistorySQLiteDBPath,
		},
		ServerConfig: ServerConfig{
			Enabled:    false,
			ListenAddr: DefaultServerListenAddr,
		},
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath and supports both
// JSON and YAML formats. YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		return nil, common.NewError("no config file found in default locations")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read config file '%s'", filePath)
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
