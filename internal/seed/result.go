// Package seed loads the static squad, profile and staff files into the
// database. Loads are idempotent: every row is upserted on its natural key.
package seed

import "fmt"

// Result tracks counts and errors from a load.
type Result struct {
	Kind    string
	Created int
	Updated int
	Skipped int
	Errors  []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Updated++
	}
}

// Summary returns a human-readable summary of the load.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"kind=%s created=%d updated=%d skipped=%d errors=%d",
		r.Kind, r.Created, r.Updated, r.Skipped, len(r.Errors),
	)
}
