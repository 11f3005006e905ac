package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Operation names accepted in scenario steps.
const (
	OpCreate       = "create"
	OpCheckIn      = "checkin"
	OpClaimSuccess = "claim_success"
	OpClaimForfeit = "claim_forfeit"
	OpFund         = "fund"
)

// Scenario defines a conformance test scenario: initial funding, a sequence
// of timed operation steps, and assertions on the final state and trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Funding credits accounts before the first step.
	Funding []FundingStep `yaml:"funding,omitempty"`

	// Steps is the timed operation sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the audit trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FundingStep credits an account during setup.
type FundingStep struct {
	Account string `yaml:"account"`
	Amount  uint64 `yaml:"amount"`
}

// Step is one timed operation. Advance (a Go duration string) is applied to
// the scenario clock before the operation; a step may be advance-only.
type Step struct {
	Advance string `yaml:"advance,omitempty"`

	// Op is one of create, checkin, claim_success, claim_forfeit, fund.
	Op string `yaml:"op,omitempty"`

	// Caller is the identity making the call.
	Caller string `yaml:"caller,omitempty"`

	// Owner addresses another user's record (claim_forfeit).
	Owner string `yaml:"owner,omitempty"`

	// ID is the record id within the owner's collection.
	ID uint64 `yaml:"id,omitempty"`

	// Creation parameters.
	Title         string `yaml:"title,omitempty"`
	WindowDays    uint64 `yaml:"window_days,omitempty"`
	LossRecipient string `yaml:"loss_recipient,omitempty"`
	Deposit       uint64 `yaml:"deposit,omitempty"`

	// Fund parameters.
	Account string `yaml:"account,omitempty"`
	Amount  uint64 `yaml:"amount,omitempty"`

	// Expect specifies the expected outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies a step's expected outcome.
type Expect struct {
	// Error is the expected rejection code (e.g. "TOO_SOON").
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// ID is the expected new record id (create only).
	ID *uint64 `yaml:"id,omitempty"`

	// Count is the expected new check-in count (checkin only).
	Count *uint64 `yaml:"count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

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

// validateScenario checks required fields and operation parameters.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	for i, f := range s.Funding {
		if f.Account == "" {
			return fmt.Errorf("funding %d: account is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	if step.Advance != "" {
		if _, err := time.ParseDuration(step.Advance); err != nil {
			return fmt.Errorf("bad advance duration %q: %w", step.Advance, err)
		}
	}

	switch step.Op {
	case "":
		if step.Advance == "" {
			return fmt.Errorf("step needs an op or an advance")
		}
		return nil
	case OpCreate:
		if step.Caller == "" || step.LossRecipient == "" {
			return fmt.Errorf("create needs caller and loss_recipient")
		}
	case OpCheckIn, OpClaimSuccess:
		if step.Caller == "" {
			return fmt.Errorf("%s needs a caller", step.Op)
		}
	case OpClaimForfeit:
		if step.Caller == "" || step.Owner == "" {
			return fmt.Errorf("claim_forfeit needs caller and owner")
		}
	case OpFund:
		if step.Account == "" {
			return fmt.Errorf("fund needs an account")
		}
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	return nil
}
