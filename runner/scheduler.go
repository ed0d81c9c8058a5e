package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const tracerName = "github.com/ethereum-optimism/infra/op-harness/runner"

const errNoOutcome = "unit of work terminated without returning an outcome"

// Config configures a Scheduler
type Config struct {
	Log         log.Logger
	Tracer      trace.Tracer
	RunID       string
	TestThreads int  // Concurrency limit, 0 means unbounded
	NoCapture   bool // Exposed to units of work through TestInfo
}

// Scheduler drives the selected descriptors to completion under a
// concurrency bound and publishes one event per descriptor.
type Scheduler struct {
	log         log.Logger
	tracer      trace.Tracer
	runID       string
	testThreads int
	noCapture   bool
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.TestThreads < 0 {
		panic("test threads cannot be negative")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	return &Scheduler{
		log:         cfg.Log.New("component", "scheduler"),
		tracer:      cfg.Tracer,
		runID:       cfg.RunID,
		testThreads: cfg.TestThreads,
		noCapture:   cfg.NoCapture,
	}
}

type notification struct {
	started bool
	event   types.Event
}

// Run executes every descriptor with disposition Run and synthesizes the
// outcome of the others. Events reach the sinks one at a time: test starts
// in dispatch order, executed results in completion order and synthesized
// results in selection order.
//
// The returned error reports sink failures or a cancelled ctx; test
// failures are part of the Result.
func (s *Scheduler) Run(ctx context.Context, selected []Selected, sinks ...EventSink) (*Result, error) {
	start := time.Now()
	plan := NewPlan(s.runID, selected)
	collector := NewCollector(s.runID)
	fanout := NewFanout(s.log, sinks...)

	var sinkErrs []error
	if err := fanout.OnStart(plan); err != nil {
		sinkErrs = append(sinkErrs, err)
	}

	runnable := len(Runnable(selected))
	s.log.Debug("Starting run", "run_id", s.runID, "selected", len(selected),
		"runnable", runnable, "test_threads", s.testThreads)

	// Sends never block: each descriptor produces at most two notifications.
	notifications := make(chan notification, 2*len(selected))

	consumed := make(chan []error, 1)
	go func() {
		var errs []error
		for n := range notifications {
			if n.started {
				if err := fanout.OnTestStart(n.event); err != nil {
					errs = append(errs, err)
				}
				continue
			}
			_ = collector.OnResult(n.event)
			if err := fanout.OnResult(n.event); err != nil {
				errs = append(errs, err)
			}
		}
		consumed <- errs
	}()

	dispatchErr := s.dispatch(ctx, selected, runnable, notifications)
	close(notifications)
	sinkErrs = append(sinkErrs, <-consumed...)

	result := collector.Result(time.Since(start))
	if err := fanout.OnFinish(result); err != nil {
		sinkErrs = append(sinkErrs, err)
	}

	s.log.Debug("Run finished", "run_id", s.runID, "passed", result.Summary.Passed,
		"failed", result.Summary.Failed, "ignored", result.Summary.Ignored,
		"measured", result.Summary.Measured, "filtered_out", result.Summary.FilteredOut,
		"duration", result.Summary.Elapsed)

	if dispatchErr != nil {
		sinkErrs = append([]error{dispatchErr}, sinkErrs...)
	}
	return result, errors.Join(sinkErrs...)
}

// dispatch walks the selection in order. It returns once every started
// unit of work has completed.
func (s *Scheduler) dispatch(ctx context.Context, selected []Selected, runnable int, out chan<- notification) error {
	slots := int64(s.testThreads)
	if s.Unbounded() {
		slots = int64(max(runnable, 1))
	}
	sem := semaphore.NewWeighted(slots)

	var wg conc.WaitGroup
	defer wg.Wait()

	for _, item := range selected {
		item := item
		if item.Disposition != types.DispositionRun {
			// A single slot keeps events in selection order; otherwise
			// synthesized results are emitted as soon as they are reached.
			if s.testThreads == 1 {
				if err := sem.Acquire(ctx, 1); err != nil {
					return s.interrupted(err, item)
				}
				sem.Release(1)
			}
			out <- notification{event: item.Event(synthesize(item.Disposition))}
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return s.interrupted(err, item)
		}
		out <- notification{started: true, event: item.Event(types.Outcome{})}

		wg.Go(func() {
			// The result is queued before the slot is released.
			defer sem.Release(1)
			sent := false
			defer func() {
				// runtime.Goexit unwinds past the panic catcher.
				if !sent {
					s.log.Debug("Test exited without an outcome", "test", item.Name())
					out <- notification{event: item.Event(types.Failed(errNoOutcome))}
				}
			}()
			out <- notification{event: s.execute(ctx, item)}
			sent = true
		})
	}
	return nil
}

func (s *Scheduler) interrupted(err error, item Selected) error {
	s.log.Warn("Run interrupted, waiting for running tests", "next", item.Name(), "err", err)
	return fmt.Errorf("run interrupted before %q: %w", item.Name(), err)
}

// Unbounded reports whether the scheduler runs without a concurrency limit.
func (s *Scheduler) Unbounded() bool {
	return s.testThreads == 0
}

// execute runs one unit of work, turning a panic into a failure.
func (s *Scheduler) execute(ctx context.Context, item Selected) types.Event {
	ctx = WithTestInfo(ctx, TestInfo{
		RunID:     s.runID,
		Name:      item.Name(),
		Kind:      item.Kind(),
		Index:     item.Index,
		NoCapture: s.noCapture,
	})
	ctx, span := s.tracer.Start(ctx, item.Name(), trace.WithAttributes(
		attribute.String("harness.run_id", s.runID),
		attribute.String("harness.kind", item.Kind().String()),
		attribute.Int("harness.index", item.Index),
	))
	defer span.End()

	s.log.Debug("Running test", "test", item.Name(), "kind", item.Kind())
	start := time.Now()

	var outcome types.Outcome
	work := item.Work()
	if work == nil {
		outcome = types.Failed("no unit of work registered")
	} else {
		var catcher panics.Catcher
		catcher.Try(func() { outcome = work.Run(ctx) })
		if r := catcher.Recovered(); r != nil {
			s.log.Debug("Test panicked", "test", item.Name(), "panic", r.Value)
			outcome = types.Failed(fmt.Sprintf("test panicked: %v\n%s", r.Value, r.Stack))
		}
	}
	outcome = normalize(item.Kind(), outcome)
	outcome.Elapsed = time.Since(start)

	span.SetAttributes(attribute.String("harness.outcome", outcome.Kind.String()))
	if outcome.IsFailure() {
		span.SetStatus(codes.Error, outcome.Message)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	s.log.Debug("Test finished", "test", item.Name(), "outcome", outcome.Kind, "duration", outcome.Elapsed)

	return item.Event(outcome)
}

// normalize enforces the outcomes a unit of work may produce for its kind.
func normalize(kind types.Kind, o types.Outcome) types.Outcome {
	switch o.Kind {
	case types.OutcomePassed, types.OutcomeFailed:
		return o
	case types.OutcomeMeasured:
		if kind != types.KindBench {
			return types.Failed("test produced a benchmark measurement")
		}
		return o
	case types.OutcomeIgnored, types.OutcomeFilteredOut:
		return types.Failedf("unit of work returned %s, which only the scheduler may produce", o.Kind)
	default:
		return types.Failed("unit of work returned no outcome")
	}
}

func synthesize(d types.Disposition) types.Outcome {
	if d == types.DispositionSkipAsIgnored {
		return types.Ignored()
	}
	return types.FilteredOut()
}
