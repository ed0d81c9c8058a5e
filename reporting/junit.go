package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// junitSuites is the top level element of a JUnit report.
type junitSuites struct {
	XMLName xml.Name   `xml:"testsuites"`
	Suite   junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name       string           `xml:"name,attr"`
	Timestamp  string           `xml:"timestamp,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       string           `xml:"time,attr"`
	Properties []junitProperty  `xml:"properties>property"`
	Cases      []*junitTestCase `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitTestCase struct {
	Name    string        `xml:"name,attr"`
	Time    string        `xml:"time,attr,omitempty"`
	Failure *junitFailure `xml:"failure,omitempty"`
	Skipped *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Details string `xml:",cdata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

var _ runner.EventSink = (*JUnit)(nil)

// JUnit writes a JUnit XML report when the run finishes. Filtered out
// descriptors are left out of the report.
type JUnit struct {
	nopSink
	path  string
	suite string
	now   func() time.Time
}

// NewJUnit creates a JUnit sink writing to path.
func NewJUnit(path, suite string) *JUnit {
	return &JUnit{path: path, suite: suite, now: time.Now}
}

func (j *JUnit) OnFinish(result *runner.Result) error {
	data, err := MarshalJUnit(result, j.suite, j.now())
	if err != nil {
		return err
	}
	if err := os.WriteFile(j.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write junit report %s: %w", j.path, err)
	}
	return nil
}

// MarshalJUnit encodes result as an indented JUnit XML document.
func MarshalJUnit(result *runner.Result, suite string, now time.Time) ([]byte, error) {
	s := result.Summary
	doc := junitSuites{
		Suite: junitSuite{
			Name:      suite,
			Timestamp: now.UTC().Format(time.RFC3339),
			Tests:     s.Total,
			Failures:  s.Failed,
			Skipped:   s.Ignored,
			Time:      fmt.Sprintf("%.3f", s.Elapsed.Seconds()),
			Properties: []junitProperty{
				{Name: "run_id", Value: result.RunID},
			},
		},
	}

	for _, ev := range result.Events {
		if !ev.Disposition.Reported() {
			continue
		}
		tc := &junitTestCase{Name: ev.Name}
		o := ev.Outcome
		if !o.Synthesized() {
			// Decimal point distinguishes seconds from a bare integer.
			tc.Time = fmt.Sprintf("%.3f", o.Elapsed.Seconds())
		}
		switch o.Kind {
		case types.OutcomeFailed:
			tc.Failure = &junitFailure{Message: firstLine(o.Message), Details: o.Message}
		case types.OutcomeIgnored:
			tc.Skipped = &junitSkipped{Message: "ignored"}
		}
		doc.Suite.Cases = append(doc.Suite.Cases, tc)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode junit report: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
