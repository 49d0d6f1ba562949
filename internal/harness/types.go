package harness

import "github.com/roach88/contractum/internal/compiler"

// Trace event types, in the order a run emits them.
const (
	EventCompile = "compile"
	EventCheck   = "check"
	EventInherit = "inherit"
)

// TraceEvent records one step of a scenario run.
//
// Compile events name every interface built from the specs. Check and
// inherit events carry the codes reported for the interface under test.
type TraceEvent struct {
	Type      string   `json:"type"`
	Seq       int64    `json:"seq"`
	Interface string   `json:"interface"`
	Codes     []string `json:"codes,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID stamps this run.
	RunID string `json:"run_id"`

	// Interface is the name of the interface under test.
	Interface string `json:"interface"`

	// ID is the text form of the interface id. Empty if compilation failed.
	ID string `json:"id,omitempty"`

	// Trace contains all run steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Violations  []compiler.Inconsistency    `json:"violations,omitempty"`
	Inheritance []compiler.InheritanceError `json:"inheritance,omitempty"`

	// Rendered is the textual form of the interface under test.
	Rendered string `json:"rendered,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event with the next sequence number.
func (r *Result) AddTrace(eventType, iface string, codes []string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      eventType,
		Seq:       int64(len(r.Trace) + 1),
		Interface: iface,
		Codes:     codes,
	})
}

// Valid reports whether the run found no defects.
func (r *Result) Valid() bool {
	return len(r.Violations) == 0 && len(r.Inheritance) == 0
}
