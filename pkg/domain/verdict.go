package domain

// Verdict is the outcome of evaluating a request against the policy rule set.
// Invariant: any violation implies Approved is false. Warnings never block.
//
// A Verdict is built once by the policy engine and then only read; use Clone
// before handing it to code that might retain it.
type Verdict struct {
	Approved   bool     `json:"approved"`
	Violations []string `json:"violations"`
	Warnings   []string `json:"warnings"`
}

// NewVerdict derives Approved from the violation list.
func NewVerdict(violations, warnings []string) Verdict {
	if violations == nil {
		violations = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return Verdict{
		Approved:   len(violations) == 0,
		Violations: violations,
		Warnings:   warnings,
	}
}

// Clone returns a deep copy so callers cannot alias the slices.
func (v Verdict) Clone() Verdict {
	return Verdict{
		Approved:   v.Approved,
		Violations: append([]string{}, v.Violations...),
		Warnings:   append([]string{}, v.Warnings...),
	}
}
