package config

// HTTPConfig defines the client shared by all watchers
type HTTPConfig struct {
	UserAgent          string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Timeout            Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
	MaxContentSize     int64    `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"gte=0"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// NewDefaultHTTPConfig creates default HTTP configuration
func NewDefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		UserAgent:      DefaultUserAgent,
		Timeout:        MustParseDuration(DefaultHTTPTimeout),
		MaxContentSize: DefaultMaxContentSize,
	}
}

// WatchConfig describes one watched URL
type WatchConfig struct {
	URL       string   `json:"url" yaml:"url" validate:"required,url"`
	Method    string   `json:"method,omitempty" yaml:"method,omitempty" validate:"omitempty,httpmethod"`
	Headers   []string `json:"headers,omitempty" yaml:"headers,omitempty" validate:"omitempty,dive,headerpair"`
	Interval  Duration `json:"interval" yaml:"interval" validate:"gt=0"`
	Variation float64  `json:"variation,omitempty" yaml:"variation,omitempty" validate:"gte=0,lte=1"`
	Stagger   Duration `json:"stagger,omitempty" yaml:"stagger,omitempty" validate:"gte=0"`
	Ignore    []string `json:"ignore,omitempty" yaml:"ignore,omitempty" validate:"omitempty,regexps"`
}

// StatusServerConfig defines the optional status HTTP server
type StatusServerConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// NewDefaultStatusServerConfig creates default status server configuration
func NewDefaultStatusServerConfig() StatusServerConfig {
	return StatusServerConfig{ListenAddr: DefaultStatusListenAddr}
}
