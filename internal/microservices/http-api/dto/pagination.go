package dto

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageQuery is bound from ?limit=&offset=&search= on list endpoints.
type PageQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
	Search string `form:"search" binding:"omitempty,max=256"`
}

// Normalize fills the default limit and clamps it to MaxPageLimit.
func (q PageQuery) Normalize() PageQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Page is the limit/offset envelope returned by every list endpoint.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds the envelope; base is the request URL used for next/previous links
// and may be nil, in which case no links are produced.
func NewPage[T any](results []T, total int64, q PageQuery, base *url.URL) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: total, Results: results}
	if base == nil {
		return p
	}
	if int64(q.Offset+q.Limit) < total {
		link := pageLink(base, q.Limit, q.Offset+q.Limit)
		p.Next = &link
	}
	if q.Offset > 0 {
		prev := q.Offset - q.Limit
		if prev < 0 {
			prev = 0
		}
		link := pageLink(base, q.Limit, prev)
		p.Previous = &link
	}
	return p
}

func pageLink(base *url.URL, limit, offset int) string {
	u := *base
	values := u.Query()
	values.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		values.Set("offset", strconv.Itoa(offset))
	} else {
		values.Del("offset")
	}
	u.RawQuery = values.Encode()
	return u.String()
}
