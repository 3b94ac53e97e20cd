package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhere_Search(t *testing.T) {
	w := &where{}
	w.search("saka, arsenal", "name", "team_name")

	assert.Equal(t, " WHERE (name ILIKE $1 OR team_name ILIKE $1) AND (name ILIKE $2 OR team_name ILIKE $2)", w.sql())
	assert.Equal(t, []any{"%saka%", "%arsenal%"}, w.args)
}

func TestWhere_ContainsSkipsEmpty(t *testing.T) {
	w := &where{}
	w.contains("name", "")
	w.contains("position", "Mid")
	assert.Equal(t, " WHERE position ILIKE $1", w.sql())

	limit := w.limit(Page{Limit: 20, Offset: 40})
	assert.Equal(t, " LIMIT $2 OFFSET $3", limit)
	assert.Equal(t, []any{"%Mid%", 20, 40}, w.args)
}

func TestWhere_Empty(t *testing.T) {
	w := &where{}
	assert.Equal(t, "", w.sql())
	assert.Equal(t, "", w.limit(Page{}))
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%100\%\_x%`, likePattern("100%_x"))
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"name": "name", "age": "age"}

	assert.Equal(t, " ORDER BY age DESC, id", orderBy("-age", allowed, "name"))
	assert.Equal(t, " ORDER BY name, age DESC, id", orderBy("name,-age", allowed, "name"))
	assert.Equal(t, " ORDER BY name, id", orderBy("password", allowed, "name"), "unknown fields fall back to the default")
	assert.Equal(t, " ORDER BY name, id", orderBy("", allowed, "name"))
}

func TestConflictError(t *testing.T) {
	var err error = &ConflictError{Field: "email"}
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "email already exists", err.Error())
}
