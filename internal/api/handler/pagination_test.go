package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query   string
		want    pageRequest
		wantErr bool
	}{
		{"", pageRequest{Number: 1, Size: 20}, false},
		{"page=3&page_size=5", pageRequest{Number: 3, Size: 5}, false},
		{"page_size=1000", pageRequest{Number: 1, Size: 100}, false},
		{"page_size=-1", pageRequest{Number: 1, Size: 20}, false},
		{"page_size=x", pageRequest{Number: 1, Size: 20}, false},
		{"page=0", pageRequest{}, true},
		{"page=last", pageRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := parsePage(httptest.NewRequest("GET", "/api/teams?"+tt.query, nil))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginate(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/api/players?search=ka&page=2&page_size=2", nil)
	p, err := parsePage(r)
	require.NoError(t, err)

	out, err := paginate(r, p, 5, []int{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Count)
	require.NotNil(t, out.Next)
	require.NotNil(t, out.Previous)
	assert.Equal(t, "http://example.com/api/players?page=3&page_size=2&search=ka", *out.Next)
	assert.Equal(t, "http://example.com/api/players?page_size=2&search=ka", *out.Previous)

	_, err = paginate(r, pageRequest{Number: 4, Size: 2}, 5, []int{})
	assert.Error(t, err, "page past the end")
}

func TestPaginate_EmptyFirstPage(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/matches", nil)
	out, err := paginate[int](r, pageRequest{Number: 1, Size: 20}, 0, nil)
	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.Nil(t, out.Next)
	assert.Nil(t, out.Previous)
}

func TestPaginateSlice(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/standings?page=2&page_size=3", nil)
	all := []string{"a", "b", "c", "d", "e"}

	out, err := paginateSlice(r, pageRequest{Number: 2, Size: 3}, all)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, out.Results)
	assert.Nil(t, out.Next)
}

func TestPageURL_ForwardedProto(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.example.com/api/teams", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://api.example.com/api/teams?page=2", pageURL(r, 2))
}
