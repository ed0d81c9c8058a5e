package types

import (
	"errors"
	"fmt"
	"strings"
)

// IgnoredPolicy controls how descriptors registered as ignored are treated
type IgnoredPolicy int

const (
	// IgnoredExclude reports ignored descriptors without running them.
	IgnoredExclude IgnoredPolicy = iota
	// IgnoredOnly runs only the ignored descriptors.
	IgnoredOnly
	// IgnoredInclude runs ignored descriptors alongside the rest.
	IgnoredInclude
)

func (p IgnoredPolicy) String() string {
	switch p {
	case IgnoredExclude:
		return "exclude"
	case IgnoredOnly:
		return "only"
	case IgnoredInclude:
		return "include"
	default:
		return fmt.Sprintf("ignored-policy(%d)", int(p))
	}
}

// Format is the output format used by the reporter
type Format string

const (
	FormatPretty Format = "pretty"
	FormatTerse  Format = "terse"
	FormatJSON   Format = "json"
)

// ParseFormat converts a command line value into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatTerse, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("argument for --format must be pretty, terse, or json (was %s)", s)
	}
}

// ColorPolicy decides when ANSI colors are written
type ColorPolicy string

const (
	ColorAuto   ColorPolicy = "auto"
	ColorAlways ColorPolicy = "always"
	ColorNever  ColorPolicy = "never"
)

// ParseColor converts a command line value into a ColorPolicy.
func ParseColor(s string) (ColorPolicy, error) {
	switch c := ColorPolicy(strings.ToLower(strings.TrimSpace(s))); c {
	case ColorAuto, ColorAlways, ColorNever:
		return c, nil
	default:
		return "", fmt.Errorf("argument for --color must be auto, always, or never (was %s)", s)
	}
}

// KindSet is the set of descriptor kinds a run considers
type KindSet struct {
	Tests   bool
	Benches bool
}

// AllKinds selects both tests and benchmarks.
func AllKinds() KindSet {
	return KindSet{Tests: true, Benches: true}
}

// Contains reports whether k is part of the set.
func (s KindSet) Contains(k Kind) bool {
	switch k {
	case KindTest:
		return s.Tests
	case KindBench:
		return s.Benches
	default:
		return false
	}
}

// RunOptions is the validated configuration of one run. It is treated as
// immutable once built; the Skip and IgnoreNames slices must not be modified
// after the value is handed to a run.
type RunOptions struct {
	Filter      string        // Name filter, substring unless Exact is set
	Exact       bool          // Match Filter against the whole name
	Skip        []string      // Names containing any entry are filtered out
	IgnoreNames []string      // Names treated as registered ignored, from a run profile
	RunIgnored  IgnoredPolicy // Treatment of ignored descriptors
	Kinds       KindSet       // Descriptor kinds to consider
	TestThreads int           // Concurrency limit, 0 means unbounded
	Format      Format
	Color       ColorPolicy
	List        bool   // Enumerate matching descriptors without running them
	LogFile     string // Optional path that receives an uncolored copy of the pretty output
	NoCapture   bool   // Forwarded to units of work through the context

	JUnitPath       string // Optional JUnit XML report path
	SummaryTable    bool   // Render a table of results after the summary (pretty only)
	MetricsTextfile string // Optional node-exporter textfile path
	MetricsAddr     string // Optional listen address for the metrics server
}

// DefaultRunOptions returns the options of a bare invocation.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		RunIgnored: IgnoredExclude,
		Kinds:      KindSet{Tests: true},
		Format:     FormatPretty,
		Color:      ColorAuto,
	}
}

// NameFilter returns the substring filter, if any.
func (o RunOptions) NameFilter() (string, bool) {
	if o.Exact || o.Filter == "" {
		return "", false
	}
	return o.Filter, true
}

// ExactFilter returns the exact-name filter, if any.
func (o RunOptions) ExactFilter() (string, bool) {
	if !o.Exact || o.Filter == "" {
		return "", false
	}
	return o.Filter, true
}

// Unbounded reports whether the run has no concurrency limit.
func (o RunOptions) Unbounded() bool {
	return o.TestThreads == 0
}

// Validate checks that every field holds a recognized value.
func (o RunOptions) Validate() error {
	var errs []error
	if o.TestThreads < 0 {
		errs = append(errs, fmt.Errorf("test threads must be positive, got %d", o.TestThreads))
	}
	switch o.Format {
	case FormatPretty, FormatTerse, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unrecognized output format %q", o.Format))
	}
	switch o.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("unrecognized color policy %q", o.Color))
	}
	switch o.RunIgnored {
	case IgnoredExclude, IgnoredOnly, IgnoredInclude:
	default:
		errs = append(errs, fmt.Errorf("unrecognized ignored policy %d", int(o.RunIgnored)))
	}
	if !o.Kinds.Tests && !o.Kinds.Benches {
		errs = append(errs, errors.New("at least one of tests or benchmarks must be selected"))
	}
	return errors.Join(errs...)
}
