package config

const (
	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// HTTP Defaults
	DefaultUserAgent      = "monsterwatch/dev"
	DefaultHTTPTimeout    = "30s"
	DefaultMaxContentSize = 10 * 1024 * 1024

	// Heartbeat Defaults
	DefaultHeartbeat = "10m"

	// Watch Defaults
	DefaultWatchMethod = "GET"

	// Email Defaults
	DefaultSMTPHost    = "127.0.0.1"
	DefaultSMTPPort    = 25
	DefaultFromAddress = "monsterwatch <monsterwatch@example.com>"

	// Discord Defaults
	DefaultDiscordUsername = "monsterwatch"

	// Journal Defaults
	DefaultJournalSQLitePath = "database/journal.db"

	// Status Server Defaults
	DefaultStatusListenAddr = "127.0.0.1:8089"

	// ConfigPathEnv overrides the default config file lookup
	ConfigPathEnv = "MONSTERWATCH_CONFIG_PATH"
)
