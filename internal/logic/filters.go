package logic

import "hackhub/internal/domain"

// Filters bundles the memoized filter functions one list page uses. Each
// page owns its own instance so caches never leak between pages.
type Filters struct {
	events     *Memo[*domain.Event, EventQuery]
	articles   *Memo[*domain.Article, ArticleQuery]
	categories *Memo[*domain.Event, domain.Category]
}

// NewFilters creates a fresh set of memoized filters
func NewFilters() *Filters {
	return &Filters{
		events:     NewMemo(FilterEvents),
		articles:   NewMemo(FilterArticles),
		categories: NewMemo(FilterEventsByCategory),
	}
}

// Events filters events by term and facets
func (f *Filters) Events(events []*domain.Event, q EventQuery) []*domain.Event {
	return f.events.Apply(events, q)
}

// Articles filters articles by term and category
func (f *Filters) Articles(articles []*domain.Article, q ArticleQuery) []*domain.Article {
	return f.articles.Apply(articles, q)
}

// ByCategory returns the events belonging to one tab bucket
func (f *Filters) ByCategory(events []*domain.Event, cat domain.Category) []*domain.Event {
	return f.categories.Apply(events, cat)
}

// TabEvents returns the events shown on an event tab. The category split
// runs on the full collection first so its cache survives filter changes.
func (f *Filters) TabEvents(events []*domain.Event, tab domain.Tab, state domain.FilterState) []*domain.Event {
	bucket := f.ByCategory(events, tab.Category())
	return f.Events(bucket, EventQuery{Term: state.SearchTerm, Mode: state.Mode, Status: state.Status})
}

// TabArticles returns the articles shown on the articles tab
func (f *Filters) TabArticles(articles []*domain.Article, state domain.FilterState) []*domain.Article {
	return f.Articles(articles, ArticleQuery{Term: state.SearchTerm, Category: state.Category})
}

// Reset drops every cached result
func (f *Filters) Reset() {
	f.events.Reset()
	f.articles.Reset()
	f.categories.Reset()
}
