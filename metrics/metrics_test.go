package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

func TestMetrics_Sink(t *testing.T) {
	m := New()
	events := []types.Event{
		{Name: "a", Kind: types.KindTest, Outcome: types.Outcome{Kind: types.OutcomePassed, Elapsed: time.Millisecond}},
		{Name: "b", Kind: types.KindTest, Outcome: types.Failed("boom")},
		{Name: "c", Kind: types.KindTest, Outcome: types.Ignored()},
		{Name: "d", Kind: types.KindBench, Outcome: types.Measured(10, 1)},
	}

	require.NoError(t, m.OnStart(runner.Plan{RunID: "run-1"}))
	for _, ev := range events {
		if !ev.Outcome.Synthesized() {
			require.NoError(t, m.OnTestStart(ev))
		}
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.inflight))

	for _, ev := range events {
		require.NoError(t, m.OnResult(ev))
	}
	require.NoError(t, m.OnFinish(runner.Fold("run-1", events)))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("test", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("test", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("test", "ignored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.testsTotal.WithLabelValues("benchmark", "measured")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runInfo.WithLabelValues("run-1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.runSuccess))
}

func TestMetrics_RecordError(t *testing.T) {
	m := New()
	m.RecordError("failed to write junit: disk full!")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("failed to write junit  disk full")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	require.NoError(t, m.OnStart(runner.Plan{RunID: "run-2"}))
	require.NoError(t, m.OnResult(types.Event{Name: "a", Kind: types.KindTest, Outcome: types.Passed()}))

	path := filepath.Join(t.TempDir(), "harness.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `harness_tests_total{kind="test",outcome="passed"} 1`), out)
	assert.Contains(t, out, `harness_run_info{run_id="run-2"} 1`)
}
