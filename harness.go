// Package harness runs a registry of tests and benchmarks the way the
// standard test runner does: it selects descriptors from the run options,
// schedules them under a concurrency bound and reports every outcome in one
// of the standard output formats.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-harness/exitcodes"
	"github.com/ethereum-optimism/infra/op-harness/logging"
	"github.com/ethereum-optimism/infra/op-harness/metrics"
	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/reporting"
	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/service"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// Report is the aggregated result of a run
type Report = runner.Result

// ExitStatus is the process status a run maps to
type ExitStatus int

const (
	OK     ExitStatus = exitcodes.Success
	Failed ExitStatus = exitcodes.TestFailure
	// InvalidConfig is returned when the command line is rejected and no
	// test ran. It shares its code with Failed.
	InvalidConfig ExitStatus = exitcodes.ConfigErr
)

// StatusOf maps a report to its exit status. A nil report is a failure.
func StatusOf(report *Report) ExitStatus {
	if report == nil || !report.Success() {
		return Failed
	}
	return OK
}

func (s ExitStatus) Success() bool {
	return s == OK
}

func (s ExitStatus) Code() int {
	return int(s)
}

func (s ExitStatus) String() string {
	if s.Success() {
		return "ok"
	}
	return "failed"
}

var osExit = os.Exit

// Exit terminates the process with the status code.
func (s ExitStatus) Exit() {
	osExit(s.Code())
}

// ExitIfFailed terminates the process only when the status is a failure.
func (s ExitStatus) ExitIfFailed() {
	if !s.Success() {
		s.Exit()
	}
}

type runSettings struct {
	stdout    io.Writer
	stderr    io.Writer
	log       log.Logger
	tracer    trace.Tracer
	suiteName string
}

// RunOption customizes Run
type RunOption func(*runSettings)

// WithStdout redirects the report output, os.Stdout by default.
func WithStdout(w io.Writer) RunOption {
	return func(s *runSettings) { s.stdout = w }
}

// WithStderr redirects the harness logs, os.Stderr by default.
func WithStderr(w io.Writer) RunOption {
	return func(s *runSettings) { s.stderr = w }
}

// WithLogger replaces the harness logger.
func WithLogger(logger log.Logger) RunOption {
	return func(s *runSettings) { s.log = logger }
}

// WithTracer sets the tracer used for per-test spans.
func WithTracer(tracer trace.Tracer) RunOption {
	return func(s *runSettings) { s.tracer = tracer }
}

// WithSuiteName names the suite in the JUnit report.
func WithSuiteName(name string) RunOption {
	return func(s *runSettings) { s.suiteName = name }
}

// Run selects, executes and reports the descriptors of reg.
//
// A ConfigError is returned, with a nil report, when opts are unusable.
// Otherwise the report is always returned; a non-nil error then means an
// output sink failed or ctx was cancelled before every test was dispatched.
func Run(ctx context.Context, opts types.RunOptions, reg *registry.Registry, options ...RunOption) (*Report, error) {
	settings := runSettings{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		suiteName: "op-harness",
	}
	for _, o := range options {
		o(&settings)
	}

	if err := opts.Validate(); err != nil {
		return nil, NewConfigError(err)
	}
	if reg == nil {
		return nil, NewConfigError(errors.New("registry is required"))
	}

	if settings.log == nil {
		logger, err := logging.NewLogger(settings.stderr, logging.DefaultConfig())
		if err != nil {
			return nil, NewConfigError(err)
		}
		settings.log = logger
	}

	runID := uuid.New().String()
	logger := settings.log.New("run_id", runID)

	selected := runner.Select(reg.Descriptors(), opts)
	logger.Debug("Selected descriptors",
		"registered", reg.Len(),
		"runnable", len(runner.Runnable(selected)),
		"reported", len(runner.Reported(selected)))

	if opts.List {
		if err := reporting.List(settings.stdout, selected, opts.Format); err != nil {
			return nil, fmt.Errorf("failed to write list: %w", err)
		}
		return &Report{RunID: runID}, nil
	}

	palette := reporting.NewPalette(opts.Color, settings.stdout)
	reporter, err := reporting.New(opts.Format, settings.stdout, palette)
	if err != nil {
		return nil, NewConfigError(err)
	}
	sinks := []runner.EventSink{reporter}

	if opts.SummaryTable && opts.Format == types.FormatPretty {
		sinks = append(sinks, reporting.NewSummaryTable(settings.stdout, palette))
	}

	if opts.LogFile != "" {
		logFile, err := logging.NewLogFileSink(opts.LogFile)
		if err != nil {
			return nil, NewConfigError(fmt.Errorf("failed to open logfile: %w", err))
		}
		defer logFile.Close()
		sinks = append(sinks, logFile)
	}

	if opts.JUnitPath != "" {
		sinks = append(sinks, reporting.NewJUnit(opts.JUnitPath, settings.suiteName))
	}

	var m *metrics.Metrics
	if opts.MetricsTextfile != "" || opts.MetricsAddr != "" {
		m = metrics.New()
		sinks = append(sinks, m)
	}

	if opts.MetricsAddr != "" {
		svc := service.New(logger, m.Registry())
		if err := svc.Start(opts.MetricsAddr); err != nil {
			return nil, NewConfigError(fmt.Errorf("failed to start metrics server: %w", err))
		}
		defer func() {
			if err := svc.Shutdown(context.Background()); err != nil {
				logger.Warn("Failed to stop metrics server", "err", err)
			}
		}()
		sinks = append(sinks, svc.Healthz())
	}

	scheduler := runner.NewScheduler(runner.Config{
		Log:         logger,
		Tracer:      settings.tracer,
		RunID:       runID,
		TestThreads: opts.TestThreads,
		NoCapture:   opts.NoCapture,
	})

	report, runErr := scheduler.Run(ctx, selected, sinks...)
	if runErr != nil {
		logger.Error("Run did not complete cleanly", "err", runErr)
		if m != nil {
			m.RecordError("run")
		}
	}

	if opts.MetricsTextfile != "" {
		if err := m.WriteTextfile(opts.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics textfile", "path", opts.MetricsTextfile, "err", err)
			runErr = errors.Join(runErr, err)
		}
	}

	logger.Info("Run completed",
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"ignored", report.Summary.Ignored,
		"measured", report.Summary.Measured,
		"filtered_out", report.Summary.FilteredOut,
		"elapsed", report.Summary.Elapsed)
	return report, runErr
}

// Main parses os.Args, runs reg and exits the process with the resulting
// status. It is meant to be the whole body of a suite binary's main.
func Main(reg *registry.Registry) {
	MainContext(context.Background(), reg, os.Args).Exit()
}

// MainContext is Main without the exit: it returns the status the process
// should exit with.
func MainContext(ctx context.Context, reg *registry.Registry, args []string, options ...RunOption) ExitStatus {
	settings := runSettings{stdout: os.Stdout, stderr: os.Stderr}
	for _, o := range options {
		o(&settings)
	}

	cfg, err := ParseCommandLine(args, settings.stdout, settings.stderr)
	if errors.Is(err, ErrHelp) {
		return OK
	}
	if err != nil {
		fmt.Fprintf(settings.stderr, "CLI argument error: %v\n", errors.Unwrap(err))
		return InvalidConfig
	}

	logger, err := logging.NewLogger(settings.stderr, cfg.Log)
	if err != nil {
		fmt.Fprintf(settings.stderr, "CLI argument error: %v\n", err)
		return InvalidConfig
	}
	if cfg.ProfilePath != "" {
		logger.Debug("Loaded run profile", "path", cfg.ProfilePath)
	}

	options = append(options, WithLogger(logger))
	report, err := Run(ctx, cfg.Options, reg, options...)
	if err != nil {
		if report == nil {
			fmt.Fprintf(settings.stderr, "error: %v\n", err)
		}
		return Failed
	}
	return StatusOf(report)
}
