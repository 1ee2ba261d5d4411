package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pgshape/internal/ir"
)

// Snapshot captures everything a scenario produced.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string    `json:"scenario_name"`
	Outcomes     []Outcome `json:"outcomes"`
	Catalogued   int       `json:"catalogued"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical
// JSON serialization. Empty optional fields are omitted.
func (s *Snapshot) toCanonicalMap() map[string]any {
	outcomes := make([]any, len(s.Outcomes))
	for i, o := range s.Outcomes {
		m := map[string]any{
			"kind":    o.Kind,
			"subject": o.Subject,
			"seq":     o.Seq,
		}
		if o.Type != "" {
			m["type"] = o.Type
		}
		if o.Select != "" {
			m["select"] = o.Select
		}
		if o.Target != "" {
			m["target"] = o.Target
		}
		if o.Error != "" {
			m["error"] = o.Error
		}
		if len(o.Degraded) > 0 {
			m["degraded"] = o.Degraded
		}
		outcomes[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"outcomes":      outcomes,
		"catalogued":    s.Catalogued,
	}
}

// MarshalSnapshot renders the canonical JSON snapshot of a result.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Outcomes:     result.Outcomes,
		Catalogued:   result.Catalogued,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
