package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// errWriter remembers the first write error and drops everything after it.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// take returns the pending error and clears it so it is reported once.
func (e *errWriter) take() error {
	err := e.err
	e.err = nil
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// writeRunning prints the header shared by pretty and terse output.
func writeRunning(out *errWriter, total int) {
	out.printf("\nrunning %s\n", plural(total, "test"))
}

// writeFailures prints the failure details followed by the list of names.
func writeFailures(out *errWriter, failures []types.Event) {
	if len(failures) == 0 {
		return
	}
	out.printf("\nfailures:\n")

	var details strings.Builder
	for _, ev := range failures {
		if ev.Outcome.Message == "" {
			continue
		}
		fmt.Fprintf(&details, "---- %s ----\n%s", ev.Name, ev.Outcome.Message)
		if !strings.HasSuffix(ev.Outcome.Message, "\n") {
			details.WriteString("\n")
		}
	}
	if details.Len() > 0 {
		out.printf("\n%s", details.String())
	}

	out.printf("\nfailures:\n")
	for _, ev := range failures {
		out.printf("    %s\n", ev.Name)
	}
}

// writeResultLine prints the final "test result" line.
func writeResultLine(out *errWriter, p Palette, s types.Summary) {
	status := p.paint("ok", colorOK)
	if !s.Success() {
		status = p.paint("FAILED", colorFailed)
	}
	out.printf("\ntest result: %s. %d passed; %d failed; %d ignored; %d measured; %d filtered out; finished in %s\n\n",
		status, s.Passed, s.Failed, s.Ignored, s.Measured, s.FilteredOut, formatSeconds(s.Elapsed))
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// nopSink provides empty implementations for sinks that only care about
// part of the event stream.
type nopSink struct{}

func (nopSink) OnStart(runner.Plan) error { return nil }
func (nopSink) OnTestStart(types.Event) error { return nil }
func (nopSink) OnResult(types.Event) error { return nil }
func (nopSink) OnFinish(*runner.Result) error { return nil }
