package harness

// TraceEvent is one dispatcher transition observed during a run.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Step    int    `json:"step"`
	State   string `json:"state"`
	Action  string `json:"action"`
	Version uint64 `json:"version"`
	Token   string `json:"token"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists dispatcher transitions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Navigated lists paths the catalog navigated to.
	Navigated []string `json:"navigated"`

	// Version is the dispatcher version at the end of the run.
	Version uint64 `json:"version"`

	// Final lists the catalog's recipe names in id order at the end.
	Final []string `json:"final"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Navigated: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
