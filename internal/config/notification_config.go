package config

// NotificationConfig groups the channel sections. Channels are registered in
// the fixed order discord, email, journal.
type NotificationConfig struct {
	Discord DiscordConfig `json:"discord" yaml:"discord"`
	Email   EmailConfig   `json:"email" yaml:"email"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// DiscordConfig defines the webhook channel
type DiscordConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	WebhookURL     string   `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty" validate:"required_if=Enabled true,omitempty,url"`
	Username       string   `json:"username,omitempty" yaml:"username,omitempty"`
	MentionRoleIDs []string `json:"mention_role_ids,omitempty" yaml:"mention_role_ids,omitempty" validate:"omitempty,dive,numeric"`
}

// EmailConfig defines the SMTP channel
type EmailConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	SMTPHost     string `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty" validate:"required_if=Enabled true"`
	SMTPPort     int    `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"gte=0,lte=65535"`
	SMTPUseTLS   bool   `json:"smtp_use_tls" yaml:"smtp_use_tls"`
	SMTPUsername string `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	FromAddress  string `json:"from_address,omitempty" yaml:"from_address,omitempty" validate:"required_if=Enabled true"`
	ToAddress    string `json:"to_address,omitempty" yaml:"to_address,omitempty" validate:"required_if=Enabled true"`
}

// JournalConfig defines the SQLite event journal
type JournalConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"required_if=Enabled true"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Discord: DiscordConfig{
			Username:       DefaultDiscordUsername,
			MentionRoleIDs: []string{},
		},
		Email: EmailConfig{
			SMTPHost:    DefaultSMTPHost,
			SMTPPort:    DefaultSMTPPort,
			SMTPUseTLS:  true,
			FromAddress: DefaultFromAddress,
		},
		Journal: JournalConfig{
			SQLitePath: DefaultJournalSQLitePath,
		},
	}
}
