package completion

// Candidate is a single completion suggestion gathered from a static,
// documentation, or external-program source before it is ranked and
// presented. Completion ranking and presentation are out of scope for the
// expansion engine itself (spec.md section 1); this type exists only to
// carry raw candidates up to whatever ranks them (see fuzzyrank.go).
type Candidate struct {
	Value       string
	Display     string
	Description string
}
