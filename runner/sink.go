package runner

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-harness/types"
	"github.com/ethereum/go-ethereum/log"
)

// Plan describes a run before any descriptor is dispatched
type Plan struct {
	RunID       string
	Total       int      // Descriptors reported per test: runnable plus ignored
	FilteredOut int      // Descriptors only counted as filtered out
	Names       []string // Names of the reported descriptors, in order
	Kinds       []types.Kind
}

// NewPlan summarizes a selection.
func NewPlan(runID string, selected []Selected) Plan {
	p := Plan{RunID: runID}
	for _, s := range selected {
		if !s.Disposition.Reported() {
			p.FilteredOut++
			continue
		}
		p.Total++
		p.Names = append(p.Names, s.Name())
		p.Kinds = append(p.Kinds, s.Kind())
	}
	return p
}

// EventSink consumes the event stream of a run. The scheduler calls every
// method from a single goroutine, so implementations need no locking.
type EventSink interface {
	OnStart(plan Plan) error
	OnTestStart(ev types.Event) error
	OnResult(ev types.Event) error
	OnFinish(result *Result) error
}

var _ EventSink = (*Fanout)(nil)

// Fanout publishes each event to every sink before the next event is
// delivered. A failing sink never stops the others.
type Fanout struct {
	sinks []EventSink
	log   log.Logger
}

// NewFanout creates a fan-out over sinks. Nil sinks are dropped.
func NewFanout(logger log.Logger, sinks ...EventSink) *Fanout {
	f := &Fanout{log: logger}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) each(stage string, call func(EventSink) error) error {
	var errs []error
	for i, s := range f.sinks {
		if err := call(s); err != nil {
			f.log.Warn("Event sink failed", "stage", stage, "sink", fmt.Sprintf("%T", s), "index", i, "err", err)
			errs = append(errs, fmt.Errorf("%s sink %T: %w", stage, s, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) OnStart(plan Plan) error {
	return f.each("start", func(s EventSink) error { return s.OnStart(plan) })
}

func (f *Fanout) OnTestStart(ev types.Event) error {
	return f.each("test-start", func(s EventSink) error { return s.OnTestStart(ev) })
}

func (f *Fanout) OnResult(ev types.Event) error {
	return f.each("result", func(s EventSink) error { return s.OnResult(ev) })
}

func (f *Fanout) OnFinish(result *Result) error {
	return f.each("finish", func(s EventSink) error { return s.OnFinish(result) })
}
