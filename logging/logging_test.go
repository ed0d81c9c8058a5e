package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: log.LevelWarn.String()},
		{in: "debug", want: log.LevelDebug.String()},
		{in: "INFO", want: log.LevelInfo.String()},
		{in: "error", want: log.LevelError.String()},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lvl, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lvl.String())
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, Config{Level: "info", Format: FormatJSON})
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("shown", "run_id", "abc")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"shown"`)
		assert.Contains(t, out, `"run_id":"abc"`)
	})

	t.Run("logfmt", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, Config{Level: "warn", Format: FormatLogfmt})
		require.NoError(t, err)

		logger.Warn("careful", "test", "a")
		assert.Contains(t, buf.String(), "test=a")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, Config{Format: "xml"})
		require.Error(t, err)
	})
}

func TestAsyncFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")
	af, err := NewAsyncFile(path)
	require.NoError(t, err)

	for i := 0; i < 250; i++ {
		_, err := af.Write([]byte("line\n"))
		require.NoError(t, err)
	}
	require.NoError(t, af.Close())
	require.NoError(t, af.Close(), "second close is a no-op")

	_, err = af.Write([]byte("late"))
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 250, strings.Count(string(data), "line\n"))
}

func TestLogFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	sink, err := NewLogFileSink(path)
	require.NoError(t, err)

	reg := registry.New().
		Test("green", func(ctx context.Context) error { return nil }).
		Test("red", func(ctx context.Context) error { return errors.New("\x1b[31mcolored\x1b[0m failure") })

	result, err := runner.NewScheduler(runner.Config{
		Log:         log.NewLogger(log.DiscardHandler()),
		TestThreads: 1,
	}).Run(context.Background(), runner.Select(reg.Descriptors(), types.DefaultRunOptions()), sink)
	require.NoError(t, err)
	require.False(t, result.Success())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "test green ... ok\n")
	assert.Contains(t, out, "test red ... FAILED\n")
	assert.Contains(t, out, "colored failure")
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "test result: FAILED. 1 passed; 1 failed;")
}
