package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "pretty", want: FormatPretty},
		{in: "TERSE", want: FormatTerse},
		{in: " json ", want: FormatJSON},
		{in: "junit", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.EqualError(t, err, "argument for --format must be pretty, terse, or json (was "+tt.in+")")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor(t *testing.T) {
	for _, in := range []string{"auto", "always", "never"} {
		got, err := ParseColor(in)
		require.NoError(t, err)
		assert.Equal(t, ColorPolicy(in), got)
	}

	_, err := ParseColor("sometimes")
	require.EqualError(t, err, "argument for --color must be auto, always, or never (was sometimes)")
}

func TestRunOptions_Filters(t *testing.T) {
	opts := DefaultRunOptions()
	_, ok := opts.NameFilter()
	assert.False(t, ok)
	_, ok = opts.ExactFilter()
	assert.False(t, ok)
	assert.True(t, opts.Unbounded())

	opts.Filter = "foo"
	f, ok := opts.NameFilter()
	assert.True(t, ok)
	assert.Equal(t, "foo", f)

	opts.Exact = true
	_, ok = opts.NameFilter()
	assert.False(t, ok)
	f, ok = opts.ExactFilter()
	assert.True(t, ok)
	assert.Equal(t, "foo", f)
}

func TestRunOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *RunOptions)
		wantErr string
	}{
		{name: "defaults", mutate: func(*RunOptions) {}},
		{name: "bounded", mutate: func(o *RunOptions) { o.TestThreads = 4 }},
		{name: "negative threads", mutate: func(o *RunOptions) { o.TestThreads = -2 }, wantErr: "test threads"},
		{name: "unknown format", mutate: func(o *RunOptions) { o.Format = "xml" }, wantErr: "output format"},
		{name: "unknown color", mutate: func(o *RunOptions) { o.Color = "" }, wantErr: "color policy"},
		{name: "unknown policy", mutate: func(o *RunOptions) { o.RunIgnored = 7 }, wantErr: "ignored policy"},
		{name: "no kinds", mutate: func(o *RunOptions) { o.Kinds = KindSet{} }, wantErr: "at least one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultRunOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKindSet(t *testing.T) {
	assert.True(t, KindSet{Tests: true}.Contains(KindTest))
	assert.False(t, KindSet{Tests: true}.Contains(KindBench))
	assert.True(t, AllKinds().Contains(KindBench))
	assert.False(t, AllKinds().Contains(Kind(9)))
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	for _, o := range []Outcome{
		Passed(),
		Failed("boom"),
		Measured(10, 1),
		Ignored(),
		FilteredOut(),
		FilteredOut(),
		{},
	} {
		s.Add(o)
	}
	s.Elapsed = time.Second

	assert.Equal(t, Summary{Total: 4, Passed: 1, Failed: 1, Measured: 1, Ignored: 1, FilteredOut: 2}, s.Counts())
	assert.False(t, s.Success())
	assert.True(t, Summary{Passed: 3, FilteredOut: 1}.Success())
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome     Outcome
		str         string
		failure     bool
		synthesized bool
	}{
		{outcome: Passed(), str: "passed"},
		{outcome: Failed("boom"), str: "failed: boom", failure: true},
		{outcome: FailedNoMessage(), str: "failed", failure: true},
		{outcome: Failedf("got %d", 3), str: "failed: got 3", failure: true},
		{outcome: Measured(1500, 3), str: "measured (avg=1500, var=3)"},
		{outcome: Ignored(), str: "ignored", synthesized: true},
		{outcome: FilteredOut(), str: "filtered_out", synthesized: true},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.outcome.String())
			assert.Equal(t, tt.failure, tt.outcome.IsFailure())
			assert.Equal(t, tt.synthesized, tt.outcome.Synthesized())
		})
	}
}

func TestDisposition_Reported(t *testing.T) {
	assert.True(t, DispositionRun.Reported())
	assert.True(t, DispositionSkipAsIgnored.Reported())
	assert.False(t, DispositionSkipByFilter.Reported())
	assert.False(t, DispositionSkipByKind.Reported())
	assert.Equal(t, "benchmark", KindBench.String())
}
