// Package conclusions holds the pure core of the review pipeline: prompt
// assembly from interview data, tolerant parsing of model output and
// reconciliation of parsed proposals against existing evaluation records.
package conclusions

// Kind discriminates what a normalized item refers to.
type Kind string

const (
	KindDimension       Kind = "dimension"
	KindStack           Kind = "stack"
	KindFinalConclusion Kind = "finalConclusion"
)

// Proposal is one conclusion drafted by the model. Model output is untrusted:
// proposals only exist after per-element validation in ParseConclusions.
type Proposal struct {
	// TargetID is the dimension or main-stack taxonomy id the model was
	// asked to echo back.
	TargetID   string
	Conclusion string
	IsStack    bool
}

// NormalizedItem is a proposal reconciled against the interview snapshot,
// ready for display and editing.
type NormalizedItem struct {
	ID           string
	EvaluationID string
	Label        string
	Conclusion   string
	DimensionID  string
	StackID      string
	Kind         Kind
	Topics       []string
	// CurrentConclusion is the previously saved value, for diffing. Empty
	// when the proposal matched no known evaluation record.
	CurrentConclusion string
}
