package logic

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"hackhub/internal/domain"
)

// EventQuery is the free-text and facet criteria applied to events
type EventQuery struct {
	Term   string
	Mode   domain.EventMode
	Status domain.EventStatus
}

// ArticleQuery is the free-text and category criteria applied to articles
type ArticleQuery struct {
	Term     string
	Category domain.ArticleCategory
}

// fold returns s case-folded for caseless comparison
func fold(s string) string {
	// A Caser keeps state and must not be shared between goroutines
	return cases.Fold().String(s)
}

// containsFolded reports whether the folded needle occurs in s
func containsFolded(s, foldedNeedle string) bool {
	if foldedNeedle == "" {
		return true
	}
	return strings.Contains(fold(s), foldedNeedle)
}

// anyContainsFolded reports whether any value contains the folded needle
func anyContainsFolded(values []string, foldedNeedle string) bool {
	for _, v := range values {
		if containsFolded(v, foldedNeedle) {
			return true
		}
	}
	return false
}

// MatchesText reports whether term is a case-insensitive substring of any field
func MatchesText(term string, fields ...string) bool {
	needle := fold(strings.TrimSpace(term))
	return anyContainsFolded(fields, needle)
}

// safeMatch runs pred and treats a panic (malformed record) as no match
func safeMatch[T any](item T, pred func(T) bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return pred(item)
}

// selectWhere returns the items satisfying pred without touching the input
func selectWhere[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if safeMatch(item, pred) {
			out = append(out, item)
		}
	}
	return slices.Clip(out)
}

// FilterEvents returns the events matching the free-text term (title,
// description or any tag) and both facets. Facets set to "all" match
// everything.
func FilterEvents(events []*domain.Event, q EventQuery) []*domain.Event {
	needle := fold(strings.TrimSpace(q.Term))
	return selectWhere(events, func(e *domain.Event) bool {
		if !q.Mode.IsAll() && e.Mode != q.Mode {
			return false
		}
		if !q.Status.IsAll() && e.Status != q.Status {
			return false
		}
		return containsFolded(e.Title, needle) ||
			containsFolded(e.Description, needle) ||
			anyContainsFolded(e.Tags, needle)
	})
}

// FilterArticles returns the articles whose title, excerpt, content or tags
// contain the term. A concrete category narrows the result further.
func FilterArticles(articles []*domain.Article, q ArticleQuery) []*domain.Article {
	needle := fold(strings.TrimSpace(q.Term))
	return selectWhere(articles, func(a *domain.Article) bool {
		if !q.Category.IsAll() && a.Category != q.Category {
			return false
		}
		return containsFolded(a.Title, needle) ||
			containsFolded(a.Excerpt, needle) ||
			containsFolded(a.Content, needle) ||
			anyContainsFolded(a.Tags, needle)
	})
}

// FilterEventsByCategory returns the events classified into cat
func FilterEventsByCategory(events []*domain.Event, cat domain.Category) []*domain.Event {
	return selectWhere(events, func(e *domain.Event) bool {
		return e != nil && Classify(e) == cat
	})
}
