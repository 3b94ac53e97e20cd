package refresh

import (
	"fmt"
	"time"
)

// Kind names a refresh target.
type Kind string

const (
	KindMatches   Kind = "matches"
	KindStandings Kind = "standings"
)

// Result tracks counts and errors from one refresh run.
type Result struct {
	Kind     Kind
	Created  int
	Updated  int
	Skipped  int
	Errors   []string
	Duration time.Duration

	// Busy is set when another process held the refresh lock.
	Busy bool
	// UpToDate is set when the run found nothing to do.
	UpToDate bool
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

// Written is the number of rows inserted or updated.
func (r *Result) Written() int { return r.Created + r.Updated }

// Outcome is the metrics label for the run.
func (r *Result) Outcome() string {
	switch {
	case r.Busy:
		return "busy"
	case r.UpToDate:
		return "up_to_date"
	case len(r.Errors) > 0 && r.Written() == 0:
		return "failed"
	case len(r.Errors) > 0:
		return "partial"
	}
	return "ok"
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"kind=%s created=%d updated=%d skipped=%d errors=%d outcome=%s duration=%s",
		r.Kind, r.Created, r.Updated, r.Skipped, len(r.Errors), r.Outcome(),
		r.Duration.Round(time.Millisecond),
	)
}
