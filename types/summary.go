package types

import "time"

// Summary holds the counts of a run. It is derived by folding events and is
// never stored independently of them.
type Summary struct {
	Total       int // Selected descriptors: Passed + Failed + Ignored + Measured
	Passed      int
	Failed      int
	Ignored     int
	Measured    int
	FilteredOut int
	Elapsed     time.Duration
}

// Add folds a single outcome into the summary.
func (s *Summary) Add(o Outcome) {
	switch o.Kind {
	case OutcomePassed:
		s.Passed++
	case OutcomeFailed:
		s.Failed++
	case OutcomeMeasured:
		s.Measured++
	case OutcomeIgnored:
		s.Ignored++
	case OutcomeFilteredOut:
		s.FilteredOut++
		return
	default:
		return
	}
	s.Total++
}

// Success reports whether no selected descriptor failed.
func (s Summary) Success() bool {
	return s.Failed == 0
}

// Counts returns the summary without its timing, for comparing runs.
func (s Summary) Counts() Summary {
	s.Elapsed = 0
	return s
}
