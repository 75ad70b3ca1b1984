package monitor

import (
	"regexp"
	"strings"

	"github.com/aleister1102/monsterwatch/internal/common"
)

// IgnoredSentinel replaces every match of the ignore patterns
const IgnoredSentinel = "__ignored__"

// Masker replaces volatile substrings before content is hashed.
// A nil pattern makes it a no-op.
type Masker struct {
	pattern *regexp.Regexp
}

// NewMasker compiles patterns into a single alternation. The first pattern
// that does not compile is reported as a *common.PatternError.
func NewMasker(patterns []string) (*Masker, error) {
	if len(patterns) == 0 {
		return &Masker{}, nil
	}

	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, common.NewPatternError(p, err)
		}
	}

	// Existing sentinels are matched first so they stay intact
	combined := "(?:" + regexp.QuoteMeta(IgnoredSentinel) + "|" + strings.Join(patterns, "|") + ")"
	pattern, err := regexp.Compile(combined)
	if err != nil {
		return nil, common.NewPatternError(strings.Join(patterns, "|"), err)
	}
	return &Masker{pattern: pattern}, nil
}

// Mask replaces every match with IgnoredSentinel. When a replacement produces
// a new match (for patterns overlapping the sentinel) masking is repeated
// until the output is stable. Sentinels are matched first, so every pass that
// changes the output consumes at least one byte of the input and
// len(content)+1 passes always reach the fixed point.
func (m *Masker) Mask(content string) string {
	if m == nil || m.pattern == nil {
		return content
	}

	current := content
	for passes := len(content) + 1; passes > 0; passes-- {
		next := m.pattern.ReplaceAllLiteralString(current, IgnoredSentinel)
		if next == current {
			break
		}
		current = next
	}
	return current
}

// Enabled reports whether any ignore pattern is configured
func (m *Masker) Enabled() bool {
	return m != nil && m.pattern != nil
}
