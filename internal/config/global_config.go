package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize bounds the config file read
const maxConfigFileSize = 10 * 1024 * 1024

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	Heartbeat          Duration           `json:"heartbeat" yaml:"heartbeat" validate:"gte=0"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	HTTPConfig         HTTPConfig         `json:"http,omitempty" yaml:"http,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	StatusServerConfig StatusServerConfig `json:"status_server,omitempty" yaml:"status_server,omitempty"`
	Watch              []WatchConfig      `json:"watch" yaml:"watch" validate:"required,min=1,dive"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Heartbeat:          MustParseDuration(DefaultHeartbeat),
		LogConfig:          NewDefaultLogConfig(),
		HTTPConfig:         NewDefaultHTTPConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		StatusServerConfig: NewDefaultStatusServerConfig(),
		Watch:              []WatchConfig{},
	}
}

// URLs returns the watched URLs in configuration order
func (c *GlobalConfig) URLs() []string {
	urls := make([]string, 0, len(c.Watch))
	for _, w := range c.Watch {
		urls = append(urls, w.URL)
	}
	return urls
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, nil
	}

	if !fileExists(filePath) {
		return nil, common.NewValidationError("config_file", filePath, "config file does not exist")
	}

	data, err := readConfigFile(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	applyWatchDefaults(cfg)

	if err := expandSecrets(cfg); err != nil {
		return nil, common.WrapError(err, "failed to expand environment variables")
	}

	logger.Debug().Str("path", filePath).Int("targets", len(cfg.Watch)).Msg("Configuration loaded")
	return cfg, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewError("config file '%s' exceeds %d bytes", filePath, maxConfigFileSize)
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

func isYAMLFile(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func applyWatchDefaults(cfg *GlobalConfig) {
	for i := range cfg.Watch {
		if cfg.Watch[i].Method == "" {
			cfg.Watch[i].Method = DefaultWatchMethod
		}
		cfg.Watch[i].Method = strings.ToUpper(cfg.Watch[i].Method)
	}
}
