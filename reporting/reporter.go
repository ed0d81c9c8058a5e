// Package reporting renders the event stream of a run in the standard
// test runner output formats.
package reporting

import (
	"fmt"
	"io"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// New returns the reporter for format. The palette is ignored for json.
func New(format types.Format, w io.Writer, palette Palette) (runner.EventSink, error) {
	switch format {
	case types.FormatPretty:
		return NewPretty(w, palette), nil
	case types.FormatTerse:
		return NewTerse(w, palette), nil
	case types.FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
