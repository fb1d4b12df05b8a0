// Package pager reveals a filtered list in fixed-size increments.
package pager

import "sync"

// DefaultPageSize is the number of items revealed per page
const DefaultPageSize = 12

// Pager tracks how many pages of a list are displayed. It never owns the
// list itself: callers pass the current filtered items on every call, so a
// shrinking list can never push the cursor out of bounds.
type Pager struct {
	mu       sync.Mutex
	pageSize int
	page     int
}

// New creates a pager showing the first page. A non-positive size falls
// back to DefaultPageSize.
func New(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize, page: 1}
}

// PageSize returns the configured increment
func (p *Pager) PageSize() int { return p.pageSize }

// Page returns the current 1-based page index
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Limit returns how many items the current page reveals, before clamping
func (p *Pager) Limit() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page * p.pageSize
}

// Displayed returns min(page*pageSize, total)
func (p *Pager) Displayed(total int) int {
	return min(p.Limit(), max(total, 0))
}

// HasMore reports whether items beyond the displayed prefix exist
func (p *Pager) HasMore(total int) bool {
	return p.Displayed(total) < total
}

// RequestMore advances one page if more items exist and reports whether
// it did.
func (p *Pager) RequestMore(total int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page*p.pageSize >= total {
		return false
	}
	p.page++
	return true
}

// Reset returns to the first page
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = 1
}

// Slice returns the displayed prefix of items
func Slice[T any](p *Pager, items []T) []T {
	return items[:p.Displayed(len(items))]
}
