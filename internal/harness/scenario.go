package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recipebox/internal/catalog"
	"github.com/roach88/recipebox/internal/entrylist"
	"github.com/roach88/recipebox/internal/importer"
)

// Scenario is one catalog test scenario.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Identity selects the entry-list identity strategy. Default: stable.
	Identity string `yaml:"identity,omitempty"`

	// Setup recipes are written straight to the store, in import document
	// form, before the flow runs. They do not move the version.
	Setup []importer.Document `yaml:"setup,omitempty"`

	// Flow is the sequence of steps to run.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step kinds.
const (
	StepAdd       = "add"
	StepEdit      = "edit"
	StepDelete    = "delete"
	StepDuplicate = "duplicate"
	StepList      = "list"
	StepTags      = "tags"
)

// Step is one catalog operation.
type Step struct {
	// Do is the step kind.
	Do string `yaml:"do"`

	// ID is the recipe id for edit, delete and duplicate.
	ID int64 `yaml:"id,omitempty"`

	// Edits are session commands applied before submit (add, edit).
	Edits []Edit `yaml:"edits,omitempty"`

	// Query filters a list step.
	Query *Query `yaml:"query,omitempty"`

	// Expect checks the step outcome. A nil Expect requires success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Session command ops.
const (
	OpSetName         = "set_name"
	OpSetInstructions = "set_instructions"
	OpAddEntry        = "add_entry"
	OpRemoveEntry     = "remove_entry"
	OpUpdateEntry     = "update_entry"
)

// Edit is one session command.
type Edit struct {
	Op    string `yaml:"op"`
	Field string `yaml:"field,omitempty"`
	Entry int    `yaml:"entry,omitempty"`

	// Selector picks the field of the entry for update_entry.
	Selector int `yaml:"selector,omitempty"`

	// Value is the input for set_* and update_entry.
	Value string `yaml:"value,omitempty"`

	// Values fill a new entry's fields in selector order for add_entry.
	Values []string `yaml:"values,omitempty"`
}

// Query is a list filter.
type Query struct {
	Tags   []string `yaml:"tags,omitempty"`
	Search string   `yaml:"search,omitempty"`
}

// Expect is a per-step expectation.
type Expect struct {
	// Error is the expected error code; empty means success.
	Error string `yaml:"error,omitempty"`

	// Names are the expected list result names, in order.
	Names []string `yaml:"names,omitempty"`

	// Tags is the expected tag universe for a tags step.
	Tags []string `yaml:"tags,omitempty"`

	// Navigated is the path an add step must navigate to.
	Navigated string `yaml:"navigated,omitempty"`
}

// Assertion types.
const (
	AssertVersion    = "version"
	AssertNavigated  = "navigated"
	AssertCatalog    = "catalog"
	AssertTraceCount = "trace_count"
)

// Assertion validates the final state of a run.
type Assertion struct {
	Type string `yaml:"type"`

	// Equals is the expected version (version).
	Equals uint64 `yaml:"equals,omitempty"`

	// Paths are the expected navigated paths (navigated).
	Paths []string `yaml:"paths,omitempty"`

	// Names are the expected final recipe names in id order (catalog).
	Names []string `yaml:"names,omitempty"`

	// Action and Count bound resolved dispatches of one kind (trace_count).
	Action string `yaml:"action,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

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
	if _, err := entrylist.ParseIdentity(s.Identity); err != nil {
		return err
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Do {
	case StepAdd:
	case StepEdit, StepDelete, StepDuplicate:
		if step.ID <= 0 {
			return fmt.Errorf("flow[%d]: id is required for %s", index, step.Do)
		}
	case StepList, StepTags:
	case "":
		return fmt.Errorf("flow[%d]: do is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown step %q", index, step.Do)
	}

	if len(step.Edits) > 0 && step.Do != StepAdd && step.Do != StepEdit {
		return fmt.Errorf("flow[%d]: edits only apply to add and edit", index)
	}
	for j, e := range step.Edits {
		switch e.Op {
		case OpSetName, OpSetInstructions:
		case OpAddEntry, OpRemoveEntry, OpUpdateEntry:
			if _, err := catalog.ParseField(e.Field); err != nil {
				return fmt.Errorf("flow[%d].edits[%d]: %w", index, j, err)
			}
		default:
			return fmt.Errorf("flow[%d].edits[%d]: unknown op %q", index, j, e.Op)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertVersion, AssertNavigated, AssertCatalog:
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
