package model

import (
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PageQuery struct {
	Page  int
	Limit int
}

// ParsePageQuery reads page and limit from raw query values. Unparseable values fall back to defaults.
func ParsePageQuery(page, limit string) PageQuery {
	q := PageQuery{Page: DefaultPage, Limit: DefaultLimit}
	if p, err := strconv.Atoi(strings.TrimSpace(page)); err == nil {
		q.Page = p
	}
	if l, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil {
		q.Limit = l
	}
	q.Normalize()
	return q
}

// Normalize enforces page >= 1 and limit within [1, MaxLimit]; a zero limit means the default.
func (q *PageQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultLimit
	case q.Limit < 1:
		q.Limit = 1
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
}

func (q PageQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func NewPagination(q PageQuery, total int64) Pagination {
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Pagination{
		Page:        q.Page,
		Limit:       q.Limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: q.Page < totalPages,
		HasPrevPage: q.Page > 1,
	}
}
