package monitor

import (
	"errors"
	"strings"
	"testing"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMasker_InvalidPattern(t *testing.T) {
	masker, err := NewMasker([]string{`valid\d+`, `(unclosed`})

	require.Error(t, err)
	assert.Nil(t, masker)

	var patternErr *common.PatternError
	require.True(t, errors.As(err, &patternErr))
	assert.Equal(t, `(unclosed`, patternErr.Pattern)
}

func TestMasker_EmptyPatternsIsNoop(t *testing.T) {
	masker, err := NewMasker(nil)
	require.NoError(t, err)

	assert.False(t, masker.Enabled())
	assert.Equal(t, "anything __ignored__ goes", masker.Mask("anything __ignored__ goes"))
}

func TestMasker_Mask(t *testing.T) {
	masker, err := NewMasker([]string{
		"foo",
		"bar",
		`"eventDate": "\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}.\d{3}Z"`,
	})
	require.NoError(t, err)

	value := `{
	"key": "value",
	"foo": "bar",
	"foo": "bar",
	"key2": "bar",
	"eventDate": "2023-06-25T23:59:59.999Z",
	"eventDate": "2023-06-25T23:59:59.999Z",
	"eventDate": "0000-00-00T00:00:00.000Z",
	"eventDate": "0000-00-00T00:00:00.0000Z",
	"eventDate": "aaaa-aa-aaTaa:aa:aa.aaaZ",
	"foo1": "bar1"
}`

	expected := `{
	"key": "value",
	"__ignored__": "__ignored__",
	"__ignored__": "__ignored__",
	"key2": "__ignored__",
	__ignored__,
	__ignored__,
	__ignored__,
	"eventDate": "0000-00-00T00:00:00.0000Z",
	"eventDate": "aaaa-aa-aaTaa:aa:aa.aaaZ",
	"__ignored__1": "__ignored__1"
}`

	assert.Equal(t, expected, masker.Mask(value))
}

func TestMasker_Properties(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		inputs   []string
	}{
		{
			name:     "session ids",
			patterns: []string{`sessionid=\w+`},
			inputs:   []string{"x sessionid=abc y", "no match at all", "sessionid=1 sessionid=2", ""},
		},
		{
			name:     "timestamps and tokens",
			patterns: []string{`\d{4}-\d{2}-\d{2}`, `token:[a-f0-9]+`},
			inputs:   []string{"at 2024-01-02 token:deadbeef", "plain text"},
		},
		{
			name:     "pattern matching the sentinel text",
			patterns: []string{"ignored"},
			inputs:   []string{"ignored", "xignoredx ignored", "__ignored__"},
		},
		{
			name:     "pattern matching sentinel underscores",
			patterns: []string{"_+"},
			inputs:   []string{"a_b", "__init__", "snake_case_name"},
		},
		{
			name:     "pattern overlapping the sentinel boundary",
			patterns: []string{"x_"},
			inputs:   []string{"xx_", "x_x_x_", strings.Repeat("x", 12) + "_", strings.Repeat("x", 200) + "_"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masker, err := NewMasker(tt.patterns)
			require.NoError(t, err)

			for _, input := range tt.inputs {
				once := masker.Mask(input)
				assert.Equal(t, once, masker.Mask(once), "masking %q is not idempotent", input)
			}
		})
	}
}

func TestMasker_IdentityWithoutMatches(t *testing.T) {
	masker, err := NewMasker([]string{`sessionid=\w+`, `\btoken\b`})
	require.NoError(t, err)

	for _, input := range []string{"", "hello world", "session id = abc", "tokens"} {
		assert.Equal(t, input, masker.Mask(input))
	}
}

func TestMasker_SessionIDsMaskToSameContent(t *testing.T) {
	masker, err := NewMasker([]string{`sessionid=\w+`})
	require.NoError(t, err)

	first := masker.Mask("x sessionid=abc y")
	second := masker.Mask("x sessionid=def y")

	assert.Equal(t, "x __ignored__ y", first)
	assert.Equal(t, first, second)
}

func TestMasker_LongOverlappingInputReachesFixedPoint(t *testing.T) {
	masker, err := NewMasker([]string{"x_"})
	require.NoError(t, err)

	input := strings.Repeat("x", 12) + "_"
	once := masker.Mask(input)

	assert.NotContains(t, once, "x")
	assert.Equal(t, once, masker.Mask(once))
}
