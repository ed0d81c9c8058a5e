package reporting

import (
	"encoding/json"
	"io"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

var _ runner.EventSink = (*JSON)(nil)

// jsonEvent is a single line of the json format. The field layout follows
// libtest so that existing tooling can parse it.
type jsonEvent struct {
	Type        string   `json:"type"`
	Event       string   `json:"event,omitempty"`
	Name        string   `json:"name,omitempty"`
	TestCount   *int     `json:"test_count,omitempty"`
	Median      *uint64  `json:"median,omitempty"`
	Deviation   *uint64  `json:"deviation,omitempty"`
	Passed      *int     `json:"passed,omitempty"`
	Failed      *int     `json:"failed,omitempty"`
	Ignored     *int     `json:"ignored,omitempty"`
	Measured    *int     `json:"measured,omitempty"`
	FilteredOut *int     `json:"filtered_out,omitempty"`
	ExecTime    *float64 `json:"exec_time,omitempty"`
	Stdout      string   `json:"stdout,omitempty"`
}

// JSON renders one JSON object per line. It never emits colors.
type JSON struct {
	enc *json.Encoder
}

// NewJSON creates a json reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSON{enc: enc}
}

func ptr[T any](v T) *T {
	return &v
}

func (j *JSON) OnStart(plan runner.Plan) error {
	return j.enc.Encode(jsonEvent{Type: "suite", Event: "started", TestCount: ptr(plan.Total)})
}

func (j *JSON) OnTestStart(ev types.Event) error {
	return j.enc.Encode(jsonEvent{Type: "test", Event: "started", Name: ev.Name})
}

func (j *JSON) OnResult(ev types.Event) error {
	if !ev.Disposition.Reported() {
		return nil
	}

	o := ev.Outcome
	line := jsonEvent{Type: "test", Name: ev.Name}
	if !o.Synthesized() {
		line.ExecTime = ptr(o.Elapsed.Seconds())
	}
	switch o.Kind {
	case types.OutcomePassed:
		line.Event = "ok"
	case types.OutcomeFailed:
		line.Event = "failed"
		line.Stdout = o.Message
	case types.OutcomeIgnored:
		line.Event = "ignored"
	case types.OutcomeMeasured:
		line.Type = "bench"
		line.Event = "ok"
		line.Median = ptr(o.Measurement.Average)
		line.Deviation = ptr(o.Measurement.Variance)
	default:
		return nil
	}
	return j.enc.Encode(line)
}

func (j *JSON) OnFinish(result *runner.Result) error {
	s := result.Summary
	event := "ok"
	if !s.Success() {
		event = "failed"
	}
	return j.enc.Encode(jsonEvent{
		Type:        "suite",
		Event:       event,
		Passed:      ptr(s.Passed),
		Failed:      ptr(s.Failed),
		Ignored:     ptr(s.Ignored),
		Measured:    ptr(s.Measured),
		FilteredOut: ptr(s.FilteredOut),
		ExecTime:    ptr(s.Elapsed.Seconds()),
	})
}
