package runner

import (
	"slices"
	"strings"

	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// Selected is a descriptor tagged with its selection-time disposition
type Selected struct {
	registry.Descriptor
	Index       int // Registration position
	Disposition types.Disposition
}

// Event builds the event reporting outcome for this descriptor.
func (s Selected) Event(outcome types.Outcome) types.Event {
	return types.Event{
		Index:       s.Index,
		Name:        s.Name(),
		Kind:        s.Kind(),
		Disposition: s.Disposition,
		Outcome:     outcome,
	}
}

// Select classifies every descriptor against opts, keeping registration order.
// Descriptors named in opts.IgnoreNames are marked ignored first.
// Selection never fails; an empty result is a valid run.
func Select(descriptors []registry.Descriptor, opts types.RunOptions) []Selected {
	selected := make([]Selected, 0, len(descriptors))
	for i, d := range descriptors {
		if slices.Contains(opts.IgnoreNames, d.Name()) {
			d = d.WithIgnored(true)
		}
		selected = append(selected, Selected{
			Descriptor:  d,
			Index:       i,
			Disposition: Classify(d, opts),
		})
	}
	return selected
}

// Classify resolves the disposition of a single descriptor from its own
// ignored flag.
func Classify(d registry.Descriptor, opts types.RunOptions) types.Disposition {
	if !opts.Kinds.Contains(d.Kind()) {
		return types.DispositionSkipByKind
	}
	if !matchesFilter(d.Name(), opts) {
		return types.DispositionSkipByFilter
	}
	if skipped(d.Name(), opts.Skip) {
		return types.DispositionSkipByFilter
	}

	switch opts.RunIgnored {
	case types.IgnoredOnly:
		if !d.Ignored() {
			return types.DispositionSkipByFilter
		}
	case types.IgnoredExclude:
		if d.Ignored() {
			return types.DispositionSkipAsIgnored
		}
	}
	return types.DispositionRun
}

func matchesFilter(name string, opts types.RunOptions) bool {
	if exact, ok := opts.ExactFilter(); ok {
		return name == exact
	}
	if sub, ok := opts.NameFilter(); ok {
		return strings.Contains(name, sub)
	}
	return true
}

func skipped(name string, skip []string) bool {
	for _, s := range skip {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// Runnable returns the descriptors that will be executed.
func Runnable(selected []Selected) []Selected {
	var out []Selected
	for _, s := range selected {
		if s.Disposition == types.DispositionRun {
			out = append(out, s)
		}
	}
	return out
}

// Reported returns the descriptors that appear in per-test output, which
// are the runnable ones plus those skipped as ignored.
func Reported(selected []Selected) []Selected {
	var out []Selected
	for _, s := range selected {
		if s.Disposition.Reported() {
			out = append(out, s)
		}
	}
	return out
}
