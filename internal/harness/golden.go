package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/contractum/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonical converts a TraceSnapshot to an IR object for canonical JSON
// serialization.
func (s *TraceSnapshot) toCanonical() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.IRObject{
			"type":      ir.IRString(event.Type),
			"seq":       ir.IRInt(event.Seq),
			"interface": ir.IRString(event.Interface),
		}
		if len(event.Codes) > 0 {
			codes := make(ir.IRArray, len(event.Codes))
			for j, c := range event.Codes {
				codes[j] = ir.IRString(c)
			}
			obj["codes"] = codes
		}
		trace[i] = obj
	}

	out := ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
	}
	if s.RunID != "" {
		out["run_id"] = ir.IRString(s.RunID)
	}
	return out
}

// SnapshotJSON returns the canonical JSON of a trace snapshot, the form
// golden files hold.
func SnapshotJSON(scenarioName, runID string, trace []TraceEvent) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunID:        runID,
		Trace:        trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonical())
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The run id is only part of the snapshot when the scenario pins one.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	traceJSON, err := SnapshotJSON(scenario.Name, scenario.RunID, result.Trace)
	if err != nil {
		return nil, err
	}

	newGoldie(t).Assert(t, scenario.Name, traceJSON)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := SnapshotJSON(scenarioName, "", result.Trace)
	if err != nil {
		return err
	}

	newGoldie(t).Assert(t, scenarioName, traceJSON)
	return nil
}

// AssertRenderGolden compares the rendered interface of a result against
// testdata/golden/{name}.render.golden.
func AssertRenderGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	newGoldie(t).Assert(t, name+".render", []byte(result.Rendered))
}
