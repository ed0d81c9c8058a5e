package flags

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-harness/types"
)

const EnvVarPrefix = "OP_HARNESS"

// FlagNameToEnvVarName derives the environment variable of a flag name.
func FlagNameToEnvVarName(name, prefix string) string {
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return prefix + "_" + strings.ToUpper(name)
}

func envVar(name string) []string {
	return []string{FlagNameToEnvVarName(name, EnvVarPrefix)}
}

var (
	List = &cli.BoolFlag{
		Name:    "list",
		EnvVars: envVar("list"),
		Usage:   "List all tests and benchmarks",
	}
	Filter = &cli.StringFlag{
		Name:    "filter",
		EnvVars: envVar("filter"),
		Usage:   "Run only tests whose name contains `FILTER` (same as the positional argument)",
	}
	Exact = &cli.BoolFlag{
		Name:    "exact",
		EnvVars: envVar("exact"),
		Usage:   "Exactly match filters rather than by substring",
	}
	Skip = &cli.StringSliceFlag{
		Name:    "skip",
		EnvVars: envVar("skip"),
		Usage:   "Skip tests whose names contain `FILTER` (this flag can be used multiple times)",
	}
	Ignored = &cli.BoolFlag{
		Name:    "ignored",
		EnvVars: envVar("ignored"),
		Usage:   "Run only ignored tests",
	}
	IncludeIgnored = &cli.BoolFlag{
		Name:    "include-ignored",
		EnvVars: envVar("include-ignored"),
		Usage:   "Run ignored and not ignored tests",
	}
	Test = &cli.BoolFlag{
		Name:    "test",
		EnvVars: envVar("test"),
		Usage:   "Run tests and not benchmarks",
	}
	Bench = &cli.BoolFlag{
		Name:    "bench",
		EnvVars: envVar("bench"),
		Usage:   "Run benchmarks instead of tests",
	}
	LogFile = &cli.StringFlag{
		Name:    "logfile",
		EnvVars: envVar("logfile"),
		Usage:   "Write logs to the specified `PATH`",
	}
	NoCapture = &cli.BoolFlag{
		Name:    "nocapture",
		EnvVars: envVar("nocapture"),
		Usage:   "Don't capture stdout/stderr of each task, allow printing directly",
	}
	TestThreads = &cli.IntFlag{
		Name:    "test-threads",
		EnvVars: envVar("test-threads"),
		Usage:   "Number of threads used for running tests in parallel (unbounded when unset)",
		Action:  validateTestThreads,
	}
	Quiet = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		EnvVars: envVar("quiet"),
		Usage:   "Display one character per test instead of one line. Alias to --format=terse",
	}
	Color = &cli.StringFlag{
		Name:    "color",
		Value:   string(types.ColorAuto),
		EnvVars: envVar("color"),
		Usage:   "Configure coloring of output: auto, always, never",
		Action:  validateColor,
	}
	Format = &cli.StringFlag{
		Name:    "format",
		EnvVars: envVar("format"),
		Usage:   "Configure formatting of output: pretty, terse, json",
		Action:  validateFormat,
	}
)

var (
	Profile = &cli.StringFlag{
		Name:    "profile",
		EnvVars: envVar("profile"),
		Usage:   "Path to a YAML or TOML run profile providing defaults for skip, ignore, test_threads, format and color",
	}
	JUnit = &cli.StringFlag{
		Name:    "junit",
		EnvVars: envVar("junit"),
		Usage:   "Write a JUnit XML report to `PATH`",
	}
	SummaryTable = &cli.BoolFlag{
		Name:    "summary-table",
		EnvVars: envVar("summary-table"),
		Usage:   "Render a table of all results after the summary (pretty format only)",
	}
	MetricsTextfile = &cli.StringFlag{
		Name:    "metrics.textfile",
		EnvVars: envVar("metrics.textfile"),
		Usage:   "Write run metrics in the node-exporter textfile format to `PATH`",
	}
	MetricsAddr = &cli.StringFlag{
		Name:    "metrics.addr",
		EnvVars: envVar("metrics.addr"),
		Usage:   "Serve /metrics and /healthz on `ADDR` while the run executes",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "warn",
		EnvVars: envVar("log.level"),
		Usage:   "Harness log level: trace, debug, info, warn, error, crit",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log.format",
		Value:   "terminal",
		EnvVars: envVar("log.format"),
		Usage:   "Harness log format: terminal, logfmt, json",
	}
)

// runnerFlags mirror the standard test runner's command line.
var runnerFlags = []cli.Flag{
	List,
	Filter,
	Exact,
	Skip,
	Ignored,
	IncludeIgnored,
	Test,
	Bench,
	LogFile,
	NoCapture,
	TestThreads,
	Quiet,
	Color,
	Format,
}

var harnessFlags = []cli.Flag{
	Profile,
	JUnit,
	SummaryTable,
	MetricsTextfile,
	MetricsAddr,
	LogLevel,
	LogFormat,
}

var Flags []cli.Flag

func init() {
	Flags = append(Flags, runnerFlags...)
	Flags = append(Flags, harnessFlags...)
}

// ValueFlags returns the names, aliases included, of flags that consume an
// argument.
func ValueFlags() map[string]bool {
	out := make(map[string]bool)
	for _, f := range Flags {
		if _, ok := f.(*cli.BoolFlag); ok {
			continue
		}
		for _, name := range f.Names() {
			out[name] = true
		}
	}
	return out
}

// CheckExclusive rejects flag combinations that cannot be honored together.
func CheckExclusive(ctx *cli.Context) error {
	if ctx.Bool(Ignored.Name) && ctx.Bool(IncludeIgnored.Name) {
		return fmt.Errorf("the options --ignored and --include-ignored are mutually exclusive")
	}
	return nil
}

func validateTestThreads(_ *cli.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("argument for --test-threads must be a number > 0 (was %d)", n)
	}
	return nil
}

func validateColor(_ *cli.Context, v string) error {
	_, err := types.ParseColor(v)
	return err
}

func validateFormat(_ *cli.Context, v string) error {
	_, err := types.ParseFormat(v)
	return err
}
