package config

import (
	"fmt"
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
// An unset variable without a default is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

type expandableField struct {
	name  string
	value *string
}

// expandSecrets expands environment references in URLs, header values and credentials.
func expandSecrets(cfg *GlobalConfig) error {
	fields := []expandableField{
		{"notification_config.discord.webhook_url", &cfg.NotificationConfig.Discord.WebhookURL},
		{"notification_config.email.smtp_username", &cfg.NotificationConfig.Email.SMTPUsername},
		{"notification_config.email.smtp_password", &cfg.NotificationConfig.Email.SMTPPassword},
	}
	for i := range cfg.Watch {
		w := &cfg.Watch[i]
		fields = append(fields, expandableField{fmt.Sprintf("watch[%d].url", i), &w.URL})
		for j := range w.Headers {
			fields = append(fields, expandableField{fmt.Sprintf("watch[%d].headers[%d]", i, j), &w.Headers[j]})
		}
	}

	for _, f := range fields {
		expanded, err := expandEnvVars(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}
