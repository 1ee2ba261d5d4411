package harness

// Outcome is what one case actually produced. Fields that do not apply to
// the case kind are left empty.
type Outcome struct {
	Kind     string   `json:"kind"` // "shape", "filter" or "request"
	Subject  string   `json:"subject"`
	Type     string   `json:"type,omitempty"`
	Select   string   `json:"select,omitempty"`
	Target   string   `json:"target,omitempty"`
	Error    string   `json:"error,omitempty"`
	Degraded []string `json:"degraded,omitempty"`
	Seq      int64    `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case matched its expectation.
	Pass bool `json:"pass"`

	// Outcomes holds one entry per case, in scenario order.
	Outcomes []Outcome `json:"outcomes"`

	// Errors contains mismatch messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Catalogued is the number of distinct shapes recorded in the
	// scenario's in-memory catalog.
	Catalogued int `json:"catalogued"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []Outcome{},
		Errors:   []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutcome appends an outcome stamped with the next sequence number.
func (r *Result) AddOutcome(o Outcome) {
	o.Seq = int64(len(r.Outcomes) + 1)
	r.Outcomes = append(r.Outcomes, o)
}
