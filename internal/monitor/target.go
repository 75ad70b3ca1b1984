package monitor

import (
	"net/http"
	"strings"
	"time"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
)

// Header is a request header sent with every fetch of a target
type Header struct {
	Name  string
	Value string
}

// Target is an immutable description of one watched URL
type Target struct {
	URL       string
	Method    string
	Headers   []Header
	Interval  time.Duration
	Variation float64
	Stagger   time.Duration
	Ignore    []string
}

// NewTarget builds a Target from its config entry, parsing "Name=Value" headers.
func NewTarget(cfg config.WatchConfig) (Target, error) {
	headers := make([]Header, 0, len(cfg.Headers))
	for _, raw := range cfg.Headers {
		h, err := ParseHeader(raw)
		if err != nil {
			return Target{}, common.WrapErrorf(err, "target %s", cfg.URL)
		}
		headers = append(headers, h)
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	return Target{
		URL:       cfg.URL,
		Method:    method,
		Headers:   headers,
		Interval:  cfg.Interval.Duration(),
		Variation: cfg.Variation,
		Stagger:   cfg.Stagger.Duration(),
		Ignore:    append([]string(nil), cfg.Ignore...),
	}, nil
}

// ParseHeader splits a "Name=Value" pair. The value may itself contain '='.
func ParseHeader(raw string) (Header, error) {
	name, value, found := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return Header{}, common.NewValidationError("header", raw, "expected Name=Value")
	}
	return Header{Name: name, Value: value}, nil
}
