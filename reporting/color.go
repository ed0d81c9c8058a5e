package reporting

import (
	"io"
	"os"

	"github.com/ethereum-optimism/infra/op-harness/types"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

var (
	colorOK      = text.Colors{text.FgGreen}
	colorFailed  = text.Colors{text.FgRed}
	colorIgnored = text.Colors{text.FgYellow}
	colorBench   = text.Colors{text.FgCyan}
)

// Palette paints result tokens when colors are enabled
type Palette struct {
	enabled bool
}

// NewPalette resolves policy against w.
func NewPalette(policy types.ColorPolicy, w io.Writer) Palette {
	switch policy {
	case types.ColorAlways:
		return Palette{enabled: true}
	case types.ColorNever:
		return Palette{}
	default:
		return Palette{enabled: isTerminal(w)}
	}
}

// Enabled reports whether the palette emits escape sequences.
func (p Palette) Enabled() bool {
	return p.enabled
}

func (p Palette) paint(s string, c text.Colors) string {
	if !p.enabled {
		return s
	}
	return c.EscapeSeq() + s + text.Reset.EscapeSeq()
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
