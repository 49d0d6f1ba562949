package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/contractum/internal/ir"
)

// Scenario defines a conformance test scenario.
// A scenario compiles a set of CUE interface sources, picks one interface
// and states what the consistency and inheritance checks must report for it.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files or directories of CUE files. All of them are
	// compiled together, so interfaces may inherit across entries by name.
	Specs []string `yaml:"specs"`

	// Interface is the name of the interface under test.
	Interface string `yaml:"interface"`

	// Expect states the outcome of the checks.
	Expect Expectation `yaml:"expect"`

	// Assertions validate the compiled interface beyond the check results.
	// Supported types: declares, violation_count, inherits
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run id for deterministic traces.
	// If empty, every run gets a fresh UUIDv7.
	RunID string `yaml:"run_id,omitempty"`
}

// Expectation is the expected outcome of checking the interface under test.
type Expectation struct {
	// Valid is required: whether the interface passes every check.
	Valid *bool `yaml:"valid"`

	// Violations, when present, must equal the consistency findings in
	// report order.
	Violations []Finding `yaml:"violations,omitempty"`

	// Inheritance, when present, must equal the inheritance findings in
	// report order.
	Inheritance []Finding `yaml:"inheritance,omitempty"`

	// ID pins the interface id in any accepted text form.
	ID string `yaml:"id,omitempty"`
}

// Finding matches one reported defect. Op and Field are only compared when
// set. For inheritance findings Field matches the ancestor name.
type Finding struct {
	Code  string `yaml:"code"`
	Op    string `yaml:"op,omitempty"`
	Field string `yaml:"field,omitempty"`
}

// Assertion validates the compiled interface or the check results.
type Assertion struct {
	// Type specifies the assertion type:
	// - "declares": the interface declares Name in Table
	// - "violation_count": Code is reported exactly Count times
	// - "inherits": the interface inherits the interface called Parent
	Type string `yaml:"type"`

	// Table is one of global, assign, valency, error, transition, extension
	// (used by declares).
	Table string `yaml:"table,omitempty"`

	// Name is the declared entry (used by declares).
	Name string `yaml:"name,omitempty"`

	// Code is a consistency or inheritance code (used by violation_count).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of findings (used by violation_count).
	Count int `yaml:"count,omitempty"`

	// Parent is the inherited interface name (used by inherits).
	Parent string `yaml:"parent,omitempty"`
}

// Assertion type constants.
const (
	AssertDeclares       = "declares"
	AssertViolationCount = "violation_count"
	AssertInherits       = "inherits"
)

var declTables = map[string]bool{
	"global":     true,
	"assign":     true,
	"valency":    true,
	"error":      true,
	"transition": true,
	"extension":  true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
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

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if s.Interface == "" {
		return fmt.Errorf("interface is required")
	}

	if s.Expect.Valid == nil {
		return fmt.Errorf("expect.valid is required")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec path not found: %s", specPath)
		}
	}

	if *s.Expect.Valid && (len(s.Expect.Violations) > 0 || len(s.Expect.Inheritance) > 0) {
		return fmt.Errorf("expect: a valid interface cannot list findings")
	}

	for i, f := range s.Expect.Violations {
		if f.Code == "" {
			return fmt.Errorf("expect.violations[%d]: code is required", i)
		}
	}
	for i, f := range s.Expect.Inheritance {
		if f.Code == "" {
			return fmt.Errorf("expect.inheritance[%d]: code is required", i)
		}
	}

	if s.Expect.ID != "" {
		if _, err := ir.ParseIfaceID(s.Expect.ID); err != nil {
			return fmt.Errorf("expect.id: %w", err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDeclares:
		if !declTables[a.Table] {
			return fmt.Errorf("assertions[%d]: unknown table %q for declares", index, a.Table)
		}
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for declares", index)
		}
	case AssertViolationCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for violation_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for violation_count", index)
		}
	case AssertInherits:
		if a.Parent == "" {
			return fmt.Errorf("assertions[%d]: parent is required for inherits", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
