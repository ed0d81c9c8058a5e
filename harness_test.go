package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

func scenarioRegistry(calls *atomic.Int32) *registry.Registry {
	return registry.New().
		Test("a", func(context.Context) error {
			calls.Add(1)
			return nil
		}).
		Test("b", func(context.Context) error {
			calls.Add(1)
			return errors.New("boom")
		}).
		Test("c", func(context.Context) error {
			calls.Add(1)
			return nil
		}, registry.Ignored(true))
}

func runQuiet(t *testing.T, opts types.RunOptions, reg *registry.Registry) (*Report, string) {
	t.Helper()
	var stdout bytes.Buffer
	report, err := Run(context.Background(), opts, reg,
		WithStdout(&stdout),
		WithLogger(log.NewLogger(log.DiscardHandler())))
	require.NoError(t, err)
	require.NotNil(t, report)
	return report, stdout.String()
}

func serialOptions() types.RunOptions {
	opts := types.DefaultRunOptions()
	opts.TestThreads = 1
	return opts
}

func TestRun_Scenarios(t *testing.T) {
	t.Run("A defaults", func(t *testing.T) {
		var calls atomic.Int32
		report, out := runQuiet(t, serialOptions(), scenarioRegistry(&calls))

		assert.Equal(t, types.Summary{Total: 3, Passed: 1, Failed: 1, Ignored: 1}, report.Summary.Counts())
		assert.Equal(t, Failed, StatusOf(report))
		assert.Equal(t, int32(2), calls.Load(), "ignored tests are not executed")

		assert.True(t, strings.HasPrefix(out,
			"\nrunning 3 tests\ntest a ... ok\ntest b ... FAILED\ntest c ... ignored\n"), out)
		assert.Contains(t, out, "\n---- b ----\nboom\n")
		assert.Contains(t, out, "\ntest result: FAILED. 1 passed; 1 failed; 1 ignored; 0 measured; 0 filtered out; finished in ")
	})

	t.Run("B ignored only", func(t *testing.T) {
		var calls atomic.Int32
		opts := serialOptions()
		opts.RunIgnored = types.IgnoredOnly
		report, out := runQuiet(t, opts, scenarioRegistry(&calls))

		require.Len(t, report.Passed, 1)
		assert.Equal(t, "c", report.Passed[0].Name)
		assert.Equal(t, 1, report.Summary.Total)
		assert.Equal(t, 2, report.Summary.FilteredOut)
		assert.Equal(t, OK, StatusOf(report))
		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, out, "test c ... ok\n")
	})

	t.Run("C exact filter", func(t *testing.T) {
		var calls atomic.Int32
		opts := serialOptions()
		opts.Filter = "b"
		opts.Exact = true
		report, _ := runQuiet(t, opts, scenarioRegistry(&calls))

		assert.Equal(t, 1, report.Summary.Total)
		assert.Equal(t, 1, report.Summary.Failed)
		assert.Equal(t, Failed, StatusOf(report))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("D benchmark", func(t *testing.T) {
		reg := registry.New().
			Bench("bench1", func(context.Context) (types.Measurement, error) {
				return types.Measurement{Average: 1500}, nil
			}).
			Test("t", func(context.Context) error { return nil })
		opts := serialOptions()
		opts.Kinds = types.KindSet{Benches: true}
		report, out := runQuiet(t, opts, reg)

		require.Len(t, report.Measured, 1)
		assert.Equal(t, uint64(1500), report.Measured[0].Outcome.Measurement.Average)
		assert.Equal(t, 1, report.Summary.Measured)
		assert.Equal(t, OK, StatusOf(report))
		assert.Contains(t, out, "test bench1 ... bench:       1,500 ns/iter (+/- 0)\n")
	})
}

func TestRun_EmptySelectionSucceeds(t *testing.T) {
	var calls atomic.Int32
	opts := serialOptions()
	opts.Filter = "nothing-matches"
	report, out := runQuiet(t, opts, scenarioRegistry(&calls))

	assert.Equal(t, 0, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.FilteredOut)
	assert.Equal(t, OK, StatusOf(report))
	assert.Contains(t, out, "running 0 tests")
}

func TestRun_ListNeverExecutes(t *testing.T) {
	var calls atomic.Int32
	opts := types.DefaultRunOptions()
	opts.List = true
	report, out := runQuiet(t, opts, scenarioRegistry(&calls))

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, OK, StatusOf(report))
	assert.Equal(t, "a: test\nb: test\nc: test\n\n3 tests, 0 benchmarks\n", out)
}

func TestRun_Idempotent(t *testing.T) {
	var calls atomic.Int32
	reg := scenarioRegistry(&calls)

	first, _ := runQuiet(t, serialOptions(), reg)
	second, _ := runQuiet(t, serialOptions(), reg)
	assert.Equal(t, first.Summary.Counts(), second.Summary.Counts())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_ConfigErrors(t *testing.T) {
	opts := types.DefaultRunOptions()
	opts.TestThreads = -1
	_, err := Run(context.Background(), opts, registry.New(), WithStdout(&bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = Run(context.Background(), types.DefaultRunOptions(), nil, WithStdout(&bytes.Buffer{}))
	assert.True(t, IsConfigError(err))
}

func TestRun_OutputFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	opts := serialOptions()
	opts.Color = types.ColorAlways
	opts.LogFile = filepath.Join(dir, "logs", "run.log")
	opts.JUnitPath = filepath.Join(dir, "junit.xml")
	opts.MetricsTextfile = filepath.Join(dir, "harness.prom")
	opts.SummaryTable = true

	_, out := runQuiet(t, opts, scenarioRegistry(&calls))
	assert.Contains(t, out, "\x1b[")

	logData, err := os.ReadFile(opts.LogFile)
	require.NoError(t, err)
	assert.NotContains(t, string(logData), "\x1b[")
	assert.Contains(t, string(logData), "test b ... FAILED\n")

	junit, err := os.ReadFile(opts.JUnitPath)
	require.NoError(t, err)
	assert.Contains(t, string(junit), `<failure message="boom"`)

	prom, err := os.ReadFile(opts.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `harness_tests_total{kind="test",outcome="failed"} 1`)
}

func TestRun_JSONFormat(t *testing.T) {
	var calls atomic.Int32
	opts := serialOptions()
	opts.Format = types.FormatJSON
	_, out := runQuiet(t, opts, scenarioRegistry(&calls))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, `{"type":"suite","event":"started","test_count":3}`, lines[0])
	assert.Contains(t, lines[len(lines)-1], `"event":"failed"`)
}

func TestExitStatus(t *testing.T) {
	assert.True(t, OK.Success())
	assert.False(t, Failed.Success())
	assert.Equal(t, 0, OK.Code())
	assert.Equal(t, 101, Failed.Code())
	assert.Equal(t, Failed, StatusOf(nil))
	assert.False(t, InvalidConfig.Success())
	assert.Equal(t, 101, InvalidConfig.Code())

	var exited []int
	osExit = func(code int) { exited = append(exited, code) }
	t.Cleanup(func() { osExit = os.Exit })

	OK.ExitIfFailed()
	assert.Empty(t, exited)
	Failed.ExitIfFailed()
	OK.Exit()
	assert.Equal(t, []int{101, 0}, exited)
}

func TestMainContext(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		want       ExitStatus
		wantStdout string
		wantStderr string
	}{
		{name: "failing run", args: []string{"prog"}, want: Failed, wantStdout: "test result: FAILED."},
		{name: "passing filter", args: []string{"prog", "a", "--exact"}, want: OK, wantStdout: "test a ... ok"},
		{name: "list", args: []string{"prog", "--list", "-q"}, want: OK, wantStdout: "a: test\n"},
		{name: "help", args: []string{"prog", "-h"}, want: OK, wantStdout: "--include-ignored"},
		{name: "bad threads", args: []string{"prog", "--test-threads", "0"}, want: InvalidConfig, wantStderr: "CLI argument error:"},
		{name: "bad log format", args: []string{"prog", "--log.format", "xml"}, want: InvalidConfig, wantStderr: "CLI argument error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			var stdout, stderr bytes.Buffer
			got := MainContext(context.Background(), scenarioRegistry(&calls), tt.args,
				WithStdout(&stdout), WithStderr(&stderr))

			assert.Equal(t, tt.want, got)
			assert.Contains(t, stdout.String(), tt.wantStdout)
			assert.Contains(t, stderr.String(), tt.wantStderr)
		})
	}
}
