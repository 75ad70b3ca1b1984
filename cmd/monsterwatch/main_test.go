package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	fatal := &common.FatalBusError{URL: "https://example.com", Cause: errors.New("boom"), DeliveryErr: common.ErrBusClosed}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "config error", err: common.ErrInvalidConfiguration, want: exitFailure},
		{name: "fatal bus error", err: fatal, want: exitFatalBus},
		{name: "wrapped fatal bus error", err: common.WrapError(fatal, "run"), want: exitFatalBus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func executeValidate(t *testing.T, content string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"validate", "-c", path})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := executeValidate(t, `
heartbeat: 1h
watch:
  - url: https://example.com
    interval: 30s
    ignore: ["sessionid=\\w+"]
`)
		require.NoError(t, err)
		assert.Contains(t, out, "Config is valid!")
		assert.Contains(t, out, "Targets:   1")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := executeValidate(t, `
watch:
  - url: https://example.com
    interval: 30s
    ignore: ["(unclosed"]
`)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "(unclosed")
		assert.Equal(t, exitFailure, exitCode(err))
	})
}
