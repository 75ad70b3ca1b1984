package logger

import (
	"strings"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/rs/zerolog"
)

// ParseLevel parses a config log level, falling back to info
func ParseLevel(levelStr string) (zerolog.Level, error) {
	if strings.TrimSpace(levelStr) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	return level, nil
}

// ParseFormat parses a config log format, falling back to console
func ParseFormat(formatStr string) LogFormat {
	switch f := LogFormat(strings.ToLower(strings.TrimSpace(formatStr))); f {
	case FormatJSON, FormatText:
		return f
	default:
		return FormatConsole
	}
}
