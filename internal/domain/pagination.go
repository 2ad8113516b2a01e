package domain

import "math"

// Page size limits for list queries.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// MaxPage keeps (Page-1)*PageSize within int for any allowed page size.
	MaxPage = math.MaxInt / MaxPageSize
)

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// Formula: (Page - 1) * PageSize.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Clamp returns params with Page within 1..MaxPage and PageSize within 1..MaxPageSize.
// An out-of-range page size falls back to defaultSize.
func (p PaginationParams) Clamp(defaultSize int) PaginationParams {
	if defaultSize < 1 || defaultSize > MaxPageSize {
		defaultSize = DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = defaultSize
	}
	return p
}

// TotalPages returns ceiling(total / PageSize); 0 when PageSize is 0.
func (p PaginationParams) TotalPages(total int) int {
	if p.PageSize <= 0 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}
