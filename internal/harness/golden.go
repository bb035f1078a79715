package harness

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

// renderTrace serializes a result's trace as stable, line-oriented text
// for golden comparison. One event per line, in event order.
func renderTrace(scenarioName string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	for _, ev := range result.Trace {
		actor := ev.Actor
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(&buf, "%03d %s %s %s/%s actor=%s %s\n",
			ev.Seq,
			ev.Timestamp.UTC().Format(time.RFC3339),
			ev.Kind, ev.Entity, ev.Key, actor, ev.Payload)
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares the event trace
// against a golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, renderTrace(scenario.Name, result))

	return result, nil
}
