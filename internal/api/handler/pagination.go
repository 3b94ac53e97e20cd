package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Paginated is the list envelope: the total row count, links to the
// neighbouring pages and one page of results.
type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// pageRequest is a 1-based page number and a page size.
type pageRequest struct {
	Number int
	Size   int
}

// parsePage reads page and page_size. A bad page is an error; a bad or
// oversized page_size falls back to the default or the maximum.
func parsePage(r *http.Request) (pageRequest, error) {
	q := r.URL.Query()
	p := pageRequest{Number: 1, Size: defaultPageSize}

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, notFound("Invalid page.")
		}
		p.Number = n
	}
	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Size = min(n, maxPageSize)
		}
	}
	return p, nil
}

func (p pageRequest) store() store.Page {
	return store.Page{Limit: p.Size, Offset: (p.Number - 1) * p.Size}
}

// paginate builds the envelope for one page of total rows. Requesting a page
// past the end is an error, except page 1 of an empty list.
func paginate[T any](r *http.Request, p pageRequest, total int, results []T) (Paginated[T], error) {
	if p.Number > 1 && (p.Number-1)*p.Size >= total {
		return Paginated[T]{}, notFound("Invalid page.")
	}
	if results == nil {
		results = []T{}
	}
	out := Paginated[T]{Count: total, Results: results}
	if p.Number*p.Size < total {
		next := pageURL(r, p.Number+1)
		out.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(r, p.Number-1)
		out.Previous = &prev
	}
	return out, nil
}

// paginateSlice pages an in-memory list.
func paginateSlice[T any](r *http.Request, p pageRequest, all []T) (Paginated[T], error) {
	sp := p.store()
	start := min(sp.Offset, len(all))
	end := min(start+sp.Limit, len(all))
	return paginate(r, p, len(all), all[start:end])
}

// pageURL is the absolute URL of page n of the current request. Page 1 drops
// the page parameter.
func pageURL(r *http.Request, n int) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	q := r.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// listOptions reads the search, ordering and paging parameters of a list
// endpoint.
func listOptions(r *http.Request) (store.ListOptions, pageRequest, error) {
	p, err := parsePage(r)
	if err != nil {
		return store.ListOptions{}, p, err
	}
	q := r.URL.Query()
	return store.ListOptions{
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
		Page:     p.store(),
	}, p, nil
}
