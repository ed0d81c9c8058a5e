package reporting

import (
	"io"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// TerseLineWidth is the number of result characters printed per line.
const TerseLineWidth = 88

var _ runner.EventSink = (*Terse)(nil)

// Terse renders one character per test
type Terse struct {
	out     errWriter
	palette Palette
	total   int
	done    int
}

// NewTerse creates a terse reporter writing to w.
func NewTerse(w io.Writer, palette Palette) *Terse {
	return &Terse{out: errWriter{w: w}, palette: palette}
}

func (t *Terse) OnStart(plan runner.Plan) error {
	t.total = plan.Total
	writeRunning(&t.out, plan.Total)
	return t.out.take()
}

func (t *Terse) OnTestStart(types.Event) error {
	return nil
}

func (t *Terse) OnResult(ev types.Event) error {
	if !ev.Disposition.Reported() {
		return nil
	}

	switch ev.Outcome.Kind {
	case types.OutcomePassed:
		t.out.printf("%s", t.palette.paint(".", colorOK))
	case types.OutcomeFailed:
		t.out.printf("%s", t.palette.paint("F", colorFailed))
	case types.OutcomeIgnored:
		t.out.printf("%s", t.palette.paint("i", colorIgnored))
	case types.OutcomeMeasured:
		t.out.printf("%s", t.palette.paint("B", colorBench))
	default:
		return nil
	}

	t.done++
	if t.done%TerseLineWidth == 0 {
		t.out.printf(" %d/%d\n", t.done, t.total)
	}
	return t.out.take()
}

func (t *Terse) OnFinish(result *runner.Result) error {
	if t.done%TerseLineWidth != 0 {
		t.out.printf("\n")
	}
	writeFailures(&t.out, result.Failed)
	writeResultLine(&t.out, t.palette, result.Summary)
	return t.out.take()
}
