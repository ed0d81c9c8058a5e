package types

import (
	"fmt"
	"time"
)

// Kind distinguishes plain tests from benchmarks
type Kind int

const (
	KindTest Kind = iota
	KindBench
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindBench:
		return "benchmark"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OutcomeKind represents the terminal state of a single test
type OutcomeKind int

const (
	// OutcomeInvalid is the zero value; a unit of work must never return it.
	OutcomeInvalid OutcomeKind = iota
	OutcomePassed
	OutcomeFailed
	OutcomeMeasured
	OutcomeIgnored
	OutcomeFilteredOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeMeasured:
		return "measured"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeFilteredOut:
		return "filtered_out"
	default:
		return "invalid"
	}
}

// Measurement is the result of a benchmark, in nanoseconds per iteration
type Measurement struct {
	Average  uint64
	Variance uint64
}

// Outcome captures the result of executing (or skipping) one test
type Outcome struct {
	Kind        OutcomeKind
	Message     string        // Failure message, empty when none was given
	Measurement Measurement   // Only meaningful for OutcomeMeasured
	Elapsed     time.Duration // Wall-clock execution time, zero for synthesized outcomes
}

// Passed returns a successful outcome.
func Passed() Outcome {
	return Outcome{Kind: OutcomePassed}
}

// Failed returns a failed outcome carrying msg.
func Failed(msg string) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: msg}
}

// FailedNoMessage returns a failed outcome without a message.
func FailedNoMessage() Outcome {
	return Outcome{Kind: OutcomeFailed}
}

// Failedf is Failed with fmt.Sprintf formatting.
func Failedf(format string, args ...any) Outcome {
	return Failed(fmt.Sprintf(format, args...))
}

// Measured returns a benchmark outcome.
func Measured(average, variance uint64) Outcome {
	return Outcome{Kind: OutcomeMeasured, Measurement: Measurement{Average: average, Variance: variance}}
}

// Ignored returns the outcome the scheduler synthesizes for ignored tests.
func Ignored() Outcome {
	return Outcome{Kind: OutcomeIgnored}
}

// FilteredOut returns the outcome the scheduler synthesizes for tests excluded by filters.
func FilteredOut() Outcome {
	return Outcome{Kind: OutcomeFilteredOut}
}

// IsFailure reports whether the outcome counts against the run.
func (o Outcome) IsFailure() bool {
	return o.Kind == OutcomeFailed
}

// Synthesized reports whether the outcome is produced by the scheduler rather
// than by executing a unit of work.
func (o Outcome) Synthesized() bool {
	return o.Kind == OutcomeIgnored || o.Kind == OutcomeFilteredOut
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFailed:
		if o.Message != "" {
			return fmt.Sprintf("failed: %s", o.Message)
		}
		return "failed"
	case OutcomeMeasured:
		return fmt.Sprintf("measured (avg=%d, var=%d)", o.Measurement.Average, o.Measurement.Variance)
	default:
		return o.Kind.String()
	}
}

// Disposition is the selection-time classification of a descriptor
type Disposition int

const (
	DispositionRun Disposition = iota
	DispositionSkipAsIgnored
	DispositionSkipByFilter
	DispositionSkipByKind
)

func (d Disposition) String() string {
	switch d {
	case DispositionRun:
		return "run"
	case DispositionSkipAsIgnored:
		return "skip-ignored"
	case DispositionSkipByFilter:
		return "skip-filter"
	case DispositionSkipByKind:
		return "skip-kind"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Reported reports whether descriptors with this disposition show up in
// per-test output. Filtered descriptors only contribute to the
// "filtered out" count.
func (d Disposition) Reported() bool {
	return d == DispositionRun || d == DispositionSkipAsIgnored
}

// Event is a single outcome notification published by the scheduler
type Event struct {
	Index       int // Registration position of the descriptor
	Name        string
	Kind        Kind
	Disposition Disposition
	Outcome     Outcome
}
