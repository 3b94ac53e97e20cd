package store

import (
	"fmt"
	"strings"
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// ListOptions carries the generic list parameters: a free-text search across
// an entity's searchable fields and an ordering such as "-age" or "name".
type ListOptions struct {
	Search   string
	Ordering string
	Page     Page
}

// where accumulates AND-ed predicates and their positional arguments.
type where struct {
	clauses []string
	args    []any
}

// arg binds v and returns its placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) and(clause string) {
	w.clauses = append(w.clauses, clause)
}

// contains adds a case-insensitive substring match on column. Empty values
// are ignored.
func (w *where) contains(column, value string) {
	if value == "" {
		return
	}
	w.and(column + " ILIKE " + w.arg(likePattern(value)))
}

// search splits text into terms; every term must match at least one of the
// fields.
func (w *where) search(text string, fields ...string) {
	for _, term := range searchTerms(text) {
		p := w.arg(likePattern(term))
		ors := make([]string, len(fields))
		for i, f := range fields {
			ors[i] = f + " ILIKE " + p
		}
		w.and("(" + strings.Join(ors, " OR ") + ")")
	}
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// limit appends LIMIT/OFFSET for p. A zero limit returns every row.
func (w *where) limit(p Page) string {
	var b strings.Builder
	if p.Limit > 0 {
		b.WriteString(" LIMIT " + w.arg(p.Limit))
	}
	if p.Offset > 0 {
		b.WriteString(" OFFSET " + w.arg(p.Offset))
	}
	return b.String()
}

// orderBy resolves a requested ordering against the allowed columns. Unknown
// fields fall back to def. Comma-separated orderings are honoured in turn and
// id is always the final tiebreaker.
func orderBy(requested string, allowed map[string]string, def string) string {
	var parts []string
	for _, field := range strings.Split(requested, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		col, ok := allowed[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if desc {
			col += " DESC"
		}
		parts = append(parts, col)
	}
	if len(parts) == 0 {
		parts = []string{def}
	}
	return " ORDER BY " + strings.Join(parts, ", ") + ", id"
}

func searchTerms(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
