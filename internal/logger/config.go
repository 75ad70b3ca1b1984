package logger

import "github.com/rs/zerolog"

// LogFormat names an output encoding. Values match the log_format config key.
type LogFormat string

const (
	FormatConsole LogFormat = "console"
	FormatText    LogFormat = "text"
	FormatJSON    LogFormat = "json"
)

// RotationConfig describes the rotating log file. An empty Path disables it.
type RotationConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// LoggerConfig is the resolved logger setup
type LoggerConfig struct {
	Level   zerolog.Level
	Format  LogFormat
	Console bool
	File    RotationConfig
}

// FileEnabled reports whether log lines are also written to a file
func (c LoggerConfig) FileEnabled() bool {
	return c.File.Path != ""
}

// DefaultLoggerConfig logs info and above to the console only
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:   zerolog.InfoLevel,
		Format:  FormatConsole,
		Console: true,
		File: RotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
