package util

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Page is the list envelope shared with the backend REST API.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// Paginate slices items for page and links neighbouring pages relative to
// self, keeping its other query parameters.
func Paginate[T any](items []T, page, size int, self *url.URL) Page[T] {
	offset, limit := Calculate(page, size)
	if page < 1 {
		page = 1
	}

	out := Page[T]{Count: len(items), Results: []T{}}
	if offset < len(items) {
		end := min(offset+limit, len(items))
		out.Results = items[offset:end]
	}

	out.Next, out.Previous = Links(len(items), page, size, self)
	return out
}

// Links builds the next and previous URLs for a result of total items.
func Links(total, page, size int, self *url.URL) (next, prev *string) {
	offset, limit := Calculate(page, size)
	if page < 1 {
		page = 1
	}
	if self == nil {
		return nil, nil
	}
	if offset+limit < total {
		next = pageLink(self, page+1)
	}
	if page > 1 && offset-limit < total {
		prev = pageLink(self, page-1)
	}
	return next, prev
}

func pageLink(self *url.URL, page int) *string {
	u := *self
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
