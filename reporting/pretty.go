package reporting

import (
	"io"
	"strings"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var _ runner.EventSink = (*Pretty)(nil)

// Pretty renders one line per test as results arrive
type Pretty struct {
	out     errWriter
	palette Palette
	numbers *message.Printer
	namePad int
}

// NewPretty creates a pretty reporter writing to w.
func NewPretty(w io.Writer, palette Palette) *Pretty {
	return &Pretty{
		out:     errWriter{w: w},
		palette: palette,
		numbers: message.NewPrinter(language.English),
	}
}

func (p *Pretty) OnStart(plan runner.Plan) error {
	p.namePad = benchPadding(plan)
	writeRunning(&p.out, plan.Total)
	return p.out.take()
}

func (p *Pretty) OnTestStart(types.Event) error {
	return nil
}

func (p *Pretty) OnResult(ev types.Event) error {
	if !ev.Disposition.Reported() {
		return nil
	}
	p.writeResult(ev)
	return p.out.take()
}

func (p *Pretty) writeResult(ev types.Event) {
	o := ev.Outcome
	switch o.Kind {
	case types.OutcomePassed:
		p.out.printf("test %s ... %s\n", ev.Name, p.palette.paint("ok", colorOK))
	case types.OutcomeFailed:
		p.out.printf("test %s ... %s\n", ev.Name, p.palette.paint("FAILED", colorFailed))
	case types.OutcomeIgnored:
		p.out.printf("test %s ... %s\n", ev.Name, p.palette.paint("ignored", colorIgnored))
	case types.OutcomeMeasured:
		p.out.printf("test %s ... %s: %11s ns/iter (+/- %s)\n",
			padRight(ev.Name, p.namePad),
			p.palette.paint("bench", colorBench),
			p.numbers.Sprintf("%d", o.Measurement.Average),
			p.numbers.Sprintf("%d", o.Measurement.Variance))
	}
}

func (p *Pretty) OnFinish(result *runner.Result) error {
	writeFailures(&p.out, result.Failed)
	writeResultLine(&p.out, p.palette, result.Summary)
	return p.out.take()
}

// benchPadding returns the column benchmark names are padded to, which is
// the widest reported name when the plan contains a benchmark.
func benchPadding(plan runner.Plan) int {
	hasBench := false
	for _, k := range plan.Kinds {
		if k == types.KindBench {
			hasBench = true
			break
		}
	}
	if !hasBench {
		return 0
	}
	width := 0
	for _, name := range plan.Names {
		width = max(width, runewidth.StringWidth(name))
	}
	return width
}

func padRight(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
