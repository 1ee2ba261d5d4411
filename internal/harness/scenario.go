package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance scenario: one schema and the shapes, filter
// types and requests it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE schema directory. Relative paths are resolved
	// against the scenario file's directory by LoadScenario.
	Schema string `yaml:"schema"`

	// Shapes are projection cases.
	Shapes []ShapeCase `yaml:"shapes,omitempty"`

	// Filters are filter-path typing cases.
	Filters []FilterCase `yaml:"filters,omitempty"`

	// Requests are full query-builder cases.
	Requests []RequestCase `yaml:"requests,omitempty"`
}

// ShapeCase projects Select from table From.
type ShapeCase struct {
	From   string      `yaml:"from"`
	Select string      `yaml:"select"`
	Expect ShapeExpect `yaml:"expect"`
}

// ShapeExpect is the expected outcome of a ShapeCase. Exactly one of Shape
// or Error is set.
type ShapeExpect struct {
	// Shape is the rendered row type, e.g. "{id: string}".
	Shape string `yaml:"shape,omitempty"`

	// Error is an error kind: parse or unknown_table.
	Error string `yaml:"error,omitempty"`

	// Degraded lists the output-key paths expected to degrade to unknown.
	// Nil skips the check.
	Degraded []string `yaml:"degraded,omitempty"`
}

// FilterCase types Path rooted at table From.
type FilterCase struct {
	From   string       `yaml:"from"`
	Path   string       `yaml:"path"`
	Expect FilterExpect `yaml:"expect"`
}

// FilterExpect is the expected outcome of a FilterCase. The type is
// always checked; a failed resolution types as "unknown".
type FilterExpect struct {
	Type  string `yaml:"type"`
	Error string `yaml:"error,omitempty"`
}

// RequestCase builds a select request with typed filters.
type RequestCase struct {
	From   string          `yaml:"from"`
	Select string          `yaml:"select"`
	Where  []RequestFilter `yaml:"where,omitempty"`
	Expect RequestExpect   `yaml:"expect"`
}

// RequestFilter is one typed filter of a RequestCase.
type RequestFilter struct {
	Path  string `yaml:"path"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
	Not   bool   `yaml:"not,omitempty"`
}

// RequestExpect is the expected outcome of a RequestCase. Exactly one of
// Target or Error is set.
type RequestExpect struct {
	// Target is "METHOD path?query" with the query encoded.
	Target string `yaml:"target,omitempty"`

	// Error is an error kind, usually type.
	Error string `yaml:"error,omitempty"`
}

// Error kinds used in expectations.
const (
	KindParse          = "parse"
	KindUnknownTable   = "unknown_table"
	KindUnknownSegment = "unknown_segment"
	KindIncompletePath = "incomplete_path"
	KindEmptyPath      = "empty_path"
	KindType           = "type"
	KindOther          = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "shape:" vs "shapes:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if info, err := os.Stat(s.Schema); err != nil || !info.IsDir() {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}
	if len(s.Shapes)+len(s.Filters)+len(s.Requests) == 0 {
		return fmt.Errorf("at least one shape, filter or request case is required")
	}

	for i, c := range s.Shapes {
		if c.From == "" {
			return fmt.Errorf("shapes[%d]: from is required", i)
		}
		if (c.Expect.Shape == "") == (c.Expect.Error == "") {
			return fmt.Errorf("shapes[%d].expect: exactly one of shape or error is required", i)
		}
		if c.Expect.Error != "" && !validKind(c.Expect.Error) {
			return fmt.Errorf("shapes[%d].expect: unknown error kind %q", i, c.Expect.Error)
		}
	}

	for i, c := range s.Filters {
		if c.From == "" {
			return fmt.Errorf("filters[%d]: from is required", i)
		}
		if c.Expect.Type == "" {
			return fmt.Errorf("filters[%d].expect: type is required", i)
		}
		if c.Expect.Error != "" && !validKind(c.Expect.Error) {
			return fmt.Errorf("filters[%d].expect: unknown error kind %q", i, c.Expect.Error)
		}
	}

	for i, c := range s.Requests {
		if c.From == "" {
			return fmt.Errorf("requests[%d]: from is required", i)
		}
		for j, w := range c.Where {
			if w.Path == "" || w.Op == "" {
				return fmt.Errorf("requests[%d].where[%d]: path and op are required", i, j)
			}
		}
		if (c.Expect.Target == "") == (c.Expect.Error == "") {
			return fmt.Errorf("requests[%d].expect: exactly one of target or error is required", i)
		}
		if c.Expect.Error != "" && !validKind(c.Expect.Error) {
			return fmt.Errorf("requests[%d].expect: unknown error kind %q", i, c.Expect.Error)
		}
	}
	return nil
}

func validKind(kind string) bool {
	switch kind {
	case KindParse, KindUnknownTable, KindUnknownSegment, KindIncompletePath, KindEmptyPath, KindType, KindOther:
		return true
	}
	return false
}
