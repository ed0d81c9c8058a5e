package reporting

import (
	"io"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// List prints the reported descriptors of a selection without running
// anything. Terse output omits the trailing count line.
func List(w io.Writer, selected []runner.Selected, format types.Format) error {
	out := errWriter{w: w}

	tests, benches := 0, 0
	for _, s := range runner.Reported(selected) {
		if s.Kind() == types.KindBench {
			benches++
		} else {
			tests++
		}
		out.printf("%s: %s\n", s.Name(), s.Kind())
	}

	if format != types.FormatTerse {
		if tests != 0 || benches != 0 {
			out.printf("\n")
		}
		out.printf("%s, %s\n", plural(tests, "test"), plural(benches, "benchmark"))
	}
	return out.take()
}
