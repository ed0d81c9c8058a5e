package harness

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/ethereum-optimism/infra/op-harness/flags"
	"github.com/ethereum-optimism/infra/op-harness/logging"
	"github.com/ethereum-optimism/infra/op-harness/profile"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// Config holds everything the command line decides
type Config struct {
	Options     types.RunOptions
	Log         logging.Config
	ProfilePath string // Profile already merged into Options, kept for logging
}

// ParseArgs parses a test runner command line. args[0] is the program name.
func ParseArgs(args []string) (types.RunOptions, error) {
	cfg, err := ParseCommandLine(args, io.Discard, io.Discard)
	if err != nil {
		return types.RunOptions{}, err
	}
	return cfg.Options, nil
}

// ParseCommandLine parses args, writing usage to stdout and diagnostics to
// stderr. It returns ErrHelp when usage was requested and a ConfigError when
// the arguments are unusable.
func ParseCommandLine(args []string, stdout, stderr io.Writer) (*Config, error) {
	if len(args) == 0 {
		args = []string{"harness"}
	}

	var cfg *Config
	app := &cli.App{
		Name:                      filepath.Base(args[0]),
		Usage:                     "run the registered tests and benchmarks",
		UsageText:                 filepath.Base(args[0]) + " [OPTIONS] [FILTER]",
		Flags:                     flags.Flags,
		HideVersion:               true,
		Writer:                    stdout,
		ErrWriter:                 stderr,
		DisableSliceFlagSeparator: true,
		ExitErrHandler:            func(*cli.Context, error) {},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return err
		},
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = NewConfig(ctx)
			return err
		},
	}

	if err := app.Run(PermuteArgs(args)); err != nil {
		if IsConfigError(err) {
			return nil, err
		}
		return nil, NewConfigError(err)
	}
	if cfg == nil {
		return nil, ErrHelp
	}
	return cfg, nil
}

// PermuteArgs moves every flag in front of the positional arguments so that
// flags may follow the filter, as with getopts. Positional arguments end up
// after a "--" terminator.
func PermuteArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	valueFlags := flags.ValueFlags()
	out := []string{args[0]}
	var positional []string

	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--":
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case len(arg) > 1 && strings.HasPrefix(arg, "-"):
			out = append(out, arg)
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(name, "=") && valueFlags[name] && i+1 < len(rest) {
				i++
				out = append(out, rest[i])
			}
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context) (*Config, error) {
	if err := flags.CheckExclusive(ctx); err != nil {
		return nil, NewConfigError(err)
	}

	opts := types.DefaultRunOptions()

	positional := ctx.Args().Slice()
	if len(positional) > 1 {
		return nil, NewConfigError(fmt.Errorf("at most one filter may be given, got %d: %s",
			len(positional), strings.Join(positional, " ")))
	}
	filter := ctx.String(flags.Filter.Name)
	if len(positional) == 1 {
		if filter != "" && filter != positional[0] {
			return nil, NewConfigError(errors.New("the positional filter and --filter conflict"))
		}
		filter = positional[0]
	}
	opts.Filter = filter
	opts.Exact = ctx.Bool(flags.Exact.Name)
	if skip := ctx.StringSlice(flags.Skip.Name); len(skip) > 0 {
		opts.Skip = skip
	}

	switch {
	case ctx.Bool(flags.Ignored.Name):
		opts.RunIgnored = types.IgnoredOnly
	case ctx.Bool(flags.IncludeIgnored.Name):
		opts.RunIgnored = types.IgnoredInclude
	}

	bench := ctx.Bool(flags.Bench.Name)
	opts.Kinds = types.KindSet{
		Tests:   !bench || ctx.Bool(flags.Test.Name),
		Benches: bench,
	}

	if ctx.IsSet(flags.TestThreads.Name) {
		opts.TestThreads = ctx.Int(flags.TestThreads.Name)
	}

	color, err := types.ParseColor(ctx.String(flags.Color.Name))
	if err != nil {
		return nil, NewConfigError(err)
	}
	opts.Color = color

	switch {
	case ctx.IsSet(flags.Format.Name):
		format, err := types.ParseFormat(ctx.String(flags.Format.Name))
		if err != nil {
			return nil, NewConfigError(err)
		}
		opts.Format = format
	case ctx.Bool(flags.Quiet.Name):
		opts.Format = types.FormatTerse
	}

	opts.List = ctx.Bool(flags.List.Name)
	opts.LogFile = ctx.String(flags.LogFile.Name)
	opts.NoCapture = ctx.Bool(flags.NoCapture.Name)
	opts.JUnitPath = ctx.String(flags.JUnit.Name)
	opts.SummaryTable = ctx.Bool(flags.SummaryTable.Name)
	opts.MetricsTextfile = ctx.String(flags.MetricsTextfile.Name)
	opts.MetricsAddr = ctx.String(flags.MetricsAddr.Name)

	profilePath := ctx.String(flags.Profile.Name)
	if profilePath != "" {
		p, err := profile.Load(profilePath)
		if err != nil {
			return nil, NewConfigError(err)
		}
		opts = p.Apply(opts, profile.Set{
			TestThreads: ctx.IsSet(flags.TestThreads.Name),
			Format:      ctx.IsSet(flags.Format.Name) || ctx.Bool(flags.Quiet.Name),
			Color:       ctx.IsSet(flags.Color.Name),
		})
	}

	if err := opts.Validate(); err != nil {
		return nil, NewConfigError(err)
	}

	logCfg := logging.Config{
		Level:  ctx.String(flags.LogLevel.Name),
		Format: ctx.String(flags.LogFormat.Name),
		Color:  term.IsTerminal(int(os.Stderr.Fd())),
	}
	if _, err := logging.ParseLevel(logCfg.Level); err != nil {
		return nil, NewConfigError(err)
	}

	return &Config{
		Options:     opts,
		Log:         logCfg,
		ProfilePath: profilePath,
	}, nil
}
