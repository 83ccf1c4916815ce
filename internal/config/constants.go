package config

const (
	// Hosts Defaults
	DefaultBackupPath = "backups/hosts.bak"

	// Fetch Defaults
	DefaultFetchTimeoutSecs = 30
	DefaultFetchUserAgent   = "hostsync/1.0"

	// Scheduler Defaults
	DefaultUpdateIntervalHours = 2
	DefaultBackoffMinutes      = 10

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// History Defaults
	DefaultHistorySQLiteDBPath = ""

	// Server Defaults
	DefaultServerListenAddr = "127.0.0.1:9822"
)
