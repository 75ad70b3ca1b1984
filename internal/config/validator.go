package config

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/go-playground/validator/v10"
)

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// newValidator builds a validator with the custom rules used by the config tags.
func newValidator() *validator.Validate {
	validate := validator.New()

	// Report yaml names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		return allowedMethods[strings.ToUpper(fl.Field().String())]
	})

	// Headers are written as "Name=Value"
	_ = validate.RegisterValidation("headerpair", func(fl validator.FieldLevel) bool {
		name, _, found := strings.Cut(fl.Field().String(), "=")
		return found && strings.TrimSpace(name) != ""
	})

	_ = validate.RegisterValidation("regexps", func(fl validator.FieldLevel) bool {
		patterns, ok := fl.Field().Interface().([]string)
		if !ok {
			return false
		}
		return firstInvalidPattern(patterns) == nil
	})

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	err := newValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}

	var messages []string
	for _, e := range errs {
		fieldName := strings.TrimPrefix(e.Namespace(), "GlobalConfig.")
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", fieldName, e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Tag() == "regexps" {
			if patterns, ok := e.Value().([]string); ok {
				msg += fmt.Sprintf(", %v", firstInvalidPattern(patterns))
			}
		} else if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		messages = append(messages, msg)
	}
	return fmt.Errorf("%w:\n  %s", common.ErrInvalidConfiguration, strings.Join(messages, "\n  "))
}

// firstInvalidPattern returns a PatternError for the first pattern that does not compile.
func firstInvalidPattern(patterns []string) *common.PatternError {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return common.NewPatternError(p, err)
		}
	}
	return nil
}
