package harness

import (
	"fmt"
	"time"

	"github.com/getspecd/specd/pkg/validate"
)

// State is a scenario's position in its execution lifecycle.
type State int

// Scenario states, in lifecycle order.
const (
	StateDefined State = iota
	StateExecuted
	StateValidated
	StatePassed
	StateFailed
)

var stateNames = map[State]string{
	StateDefined:   "defined",
	StateExecuted:  "executed",
	StateValidated: "validated",
	StatePassed:    "passed",
	StateFailed:    "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the state is Passed or Failed.
func (s State) Terminal() bool {
	return s == StatePassed || s == StateFailed
}

// Scenario is one documented example attached to an operation: concrete
// parameter values plus, for body-carrying methods, an example request
// body.
type Scenario struct {
	// Name identifies the scenario in reports.
	Name string

	// Method and Path select the registered operation.
	Method string
	Path   string

	// Tags restrict which runs include this scenario (see Runner.Tags).
	Tags []string

	// Concrete parameter values, keyed by parameter name.
	PathParams  map[string]string
	QueryParams map[string]string
	Headers     map[string]string
	FormParams  map[string]string

	// Body is the example request body, marshalled as JSON.
	Body any

	// ExpectStatus pins the response status. Zero accepts any documented
	// status.
	ExpectStatus int
}

// HasTag reports whether the scenario carries the tag.
func (sc *Scenario) HasTag(tag string) bool {
	for _, t := range sc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Verdict is the outcome of validating one scenario's real exchange.
// Verdicts are created per run and never retained beyond it.
type Verdict struct {
	Scenario    string                `json:"scenario" yaml:"scenario"`
	ExecutionID string                `json:"executionId" yaml:"executionId"`
	Operation   string                `json:"operation" yaml:"operation"`
	State       State                 `json:"-" yaml:"-"`
	Status      int                   `json:"status,omitempty" yaml:"status,omitempty"`
	Violations  []*validate.FieldError `json:"violations,omitempty" yaml:"violations,omitempty"`
	// Err records an execution failure (network error, unknown
	// operation) that prevented validation.
	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Passed reports whether the scenario reached the Passed state.
func (v *Verdict) Passed() bool { return v.State == StatePassed }

// Summary renders a one-line digest for logs.
func (v *Verdict) Summary() string {
	if v.Passed() {
		return fmt.Sprintf("%s: passed (%d, %s)", v.Scenario, v.Status, v.Duration.Round(time.Millisecond))
	}
	if v.Err != nil {
		return fmt.Sprintf("%s: failed: %v", v.Scenario, v.Err)
	}
	return fmt.Sprintf("%s: failed with %d violation(s)", v.Scenario, len(v.Violations))
}
