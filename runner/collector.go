package runner

import (
	"time"

	"github.com/ethereum-optimism/infra/op-harness/types"
)

var _ EventSink = (*Collector)(nil)

// Result is the aggregated outcome of a run. Every slice holds events in
// the order they arrived from the scheduler.
type Result struct {
	RunID       string
	Summary     types.Summary
	Events      []types.Event
	Passed      []types.Event
	Failed      []types.Event
	Measured    []types.Event
	Ignored     []types.Event
	FilteredOut []types.Event
}

// Success reports whether no test failed.
func (r *Result) Success() bool {
	return r.Summary.Success()
}

// Collector folds the event stream into a Result
type Collector struct {
	result Result
}

// NewCollector creates an empty collector for runID.
func NewCollector(runID string) *Collector {
	return &Collector{result: Result{RunID: runID}}
}

func (c *Collector) OnStart(Plan) error {
	return nil
}

func (c *Collector) OnTestStart(types.Event) error {
	return nil
}

// OnResult applies a single event to the counters.
func (c *Collector) OnResult(ev types.Event) error {
	r := &c.result
	r.Summary.Add(ev.Outcome)
	r.Events = append(r.Events, ev)

	switch ev.Outcome.Kind {
	case types.OutcomePassed:
		r.Passed = append(r.Passed, ev)
	case types.OutcomeFailed:
		r.Failed = append(r.Failed, ev)
	case types.OutcomeMeasured:
		r.Measured = append(r.Measured, ev)
	case types.OutcomeIgnored:
		r.Ignored = append(r.Ignored, ev)
	case types.OutcomeFilteredOut:
		r.FilteredOut = append(r.FilteredOut, ev)
	}
	return nil
}

func (c *Collector) OnFinish(*Result) error {
	return nil
}

// Result returns the aggregated result with the run's wall-clock time.
func (c *Collector) Result(elapsed time.Duration) *Result {
	r := c.result
	r.Summary.Elapsed = elapsed
	return &r
}

// Fold aggregates a finished event stream, for consumers that replay
// events after the fact.
func Fold(runID string, events []types.Event) *Result {
	c := NewCollector(runID)
	for _, ev := range events {
		_ = c.OnResult(ev)
	}
	return c.Result(0)
}
