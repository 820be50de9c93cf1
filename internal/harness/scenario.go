package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/securetodo/internal/record"
)

// Scenario is a sequence of controller operations with expectations.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Setup steps establish initial state. They must succeed and take no
	// expect clause.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps are the operations under test.
	Flow []Step `yaml:"flow"`

	// Assertions are checked against the final projection and store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpSave      = "save"       // record
	OpToggle    = "toggle"     // id
	OpEdit      = "edit"       // id, text
	OpMove      = "move"       // id, date
	OpDelete    = "delete"     // id
	OpLoadDate  = "load_date"  // date
	OpLoadDates = "load_dates" //
	OpFail      = "fail"       // target
	OpHeal      = "heal"       //
)

// Failure injection targets.
const (
	TargetPut    = "put"
	TargetDelete = "delete"
	TargetScan   = "scan"
)

// Step is one operation.
type Step struct {
	Op     string         `yaml:"op"`
	Record *record.Record `yaml:"record,omitempty"`
	ID     string         `yaml:"id,omitempty"`
	Text   string         `yaml:"text,omitempty"`
	Date   string         `yaml:"date,omitempty"`
	Target string         `yaml:"target,omitempty"`

	// Expect checks the step's outcome. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome. Unset fields are not checked.
type Expect struct {
	// Error is "" (must succeed), "any", "not_found" or "invalid".
	Error string `yaml:"error,omitempty"`

	// ID is the id of the record the step returned.
	ID string `yaml:"id,omitempty"`

	// Checked is the checked flag of the record the step returned.
	Checked *bool `yaml:"checked,omitempty"`

	// Text is the text of the record the step returned.
	Text *string `yaml:"text,omitempty"`

	// Count is the number of records load_date returned.
	Count *int `yaml:"count,omitempty"`

	// Dates are the dates load_dates returned.
	Dates []string `yaml:"dates,omitempty"`
}

// Expected error kinds.
const (
	ErrorAny      = "any"
	ErrorNotFound = "not_found"
	ErrorInvalid  = "invalid"
)

// Assertion checks the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Records are the expected projected records, in order (records).
	Records []record.Record `yaml:"records,omitempty"`

	// Dates are the expected known dates (known_dates).
	Dates []string `yaml:"dates,omitempty"`

	// Scope is the expected loaded date (scope).
	Scope string `yaml:"scope,omitempty"`

	// Keys are the expected persisted keys (stored_keys).
	Keys []string `yaml:"keys,omitempty"`

	// Action is the action type counted (action_count).
	Action string `yaml:"action,omitempty"`

	// Count is the expected number of actions (action_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected relative order of action types (action_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertRecords     = "records"
	AssertKnownDates  = "known_dates"
	AssertScope       = "scope"
	AssertStoredKeys  = "stored_keys"
	AssertActionCount = "action_count"
	AssertActionOrder = "action_order"
	AssertReplay      = "replay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(assertion); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

// validateStep checks that a step carries the fields its op needs.
func validateStep(step Step) error {
	switch step.Op {
	case OpSave:
		if step.Record == nil {
			return fmt.Errorf("record is required for %s", step.Op)
		}
	case OpToggle, OpDelete:
		if step.ID == "" {
			return fmt.Errorf("id is required for %s", step.Op)
		}
	case OpEdit:
		if step.ID == "" {
			return fmt.Errorf("id is required for %s", step.Op)
		}
	case OpMove:
		if step.ID == "" || step.Date == "" {
			return fmt.Errorf("id and date are required for %s", step.Op)
		}
	case OpLoadDate:
		if step.Date == "" {
			return fmt.Errorf("date is required for %s", step.Op)
		}
	case OpLoadDates, OpHeal:
	case OpFail:
		switch step.Target {
		case TargetPut, TargetDelete, TargetScan:
		default:
			return fmt.Errorf("unknown fail target %q", step.Target)
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Expect != nil {
		switch step.Expect.Error {
		case "", ErrorAny, ErrorNotFound, ErrorInvalid:
		default:
			return fmt.Errorf("unknown expected error %q", step.Expect.Error)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertRecords, AssertKnownDates, AssertStoredKeys, AssertScope, AssertReplay:
		// An empty list or scope is a valid expectation.
	case AssertActionCount:
		if a.Action == "" {
			return fmt.Errorf("action is required for action_count")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for action_count")
		}
	case AssertActionOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("actions list is required for action_order")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
