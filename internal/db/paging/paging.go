// Package paging implements offset pagination for list endpoints.
package paging

import (
	"math"

	"gorm.io/gorm"
)

const (
	// DefaultSize is used when a request does not ask for a page size.
	DefaultSize = 10
	// MaxSize caps the page size a client can request.
	MaxSize = 100
	// MaxCurrent keeps Offset from overflowing at any allowed size.
	MaxCurrent = math.MaxInt / MaxSize
)

// Request is the query of a paged list.
type Request struct {
	Current int `query:"current"`
	Size    int `query:"size"`
}

// Normalize clamps current to 1..MaxCurrent and size to 1..MaxSize.
func (r Request) Normalize() Request {
	switch {
	case r.Current < 1:
		r.Current = 1
	case r.Current > MaxCurrent:
		r.Current = MaxCurrent
	}

	switch {
	case r.Size < 1:
		r.Size = DefaultSize
	case r.Size > MaxSize:
		r.Size = MaxSize
	}

	return r
}

// Offset is the number of rows to skip.
func (r Request) Offset() int {
	return (r.Current - 1) * r.Size
}

// Scope applies limit and offset to a query.
func (r Request) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(r.Offset()).Limit(r.Size)
}

// Page is one page of records plus totals.
type Page[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Size    int   `json:"size"`
	Current int   `json:"current"`
	Pages   int64 `json:"pages"`
}

// NewPage builds a page for an already normalized request.
func NewPage[T any](req Request, records []T, total int64) Page[T] {
	if records == nil {
		records = []T{}
	}

	pages := total / int64(req.Size)
	if total%int64(req.Size) != 0 {
		pages++
	}

	return Page[T]{
		Records: records,
		Total:   total,
		Size:    req.Size,
		Current: req.Current,
		Pages:   pages,
	}
}
