package source

import (
	"context"
	"slices"
	"sync"

	"hackhub/internal/domain"
	"hackhub/internal/logic"
)

// Memory is an in-memory Store
type Memory struct {
	mu       sync.RWMutex
	events   []*domain.Event
	articles []*domain.Article
	byID     map[domain.ItemKey]int
}

// NewMemory creates a store holding the given records
func NewMemory(events []*domain.Event, articles []*domain.Article) *Memory {
	m := &Memory{byID: make(map[domain.ItemKey]int)}
	m.Put(events, articles)
	return m
}

// Put adds or replaces records by id
func (m *Memory) Put(events []*domain.Event, articles []*domain.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		if e == nil {
			continue
		}
		key := domain.ItemKey{Kind: domain.KindEvent, ID: e.ID}
		if i, ok := m.byID[key]; ok {
			m.events[i] = e
			continue
		}
		m.byID[key] = len(m.events)
		m.events = append(m.events, e)
	}
	for _, a := range articles {
		if a == nil {
			continue
		}
		key := domain.ItemKey{Kind: domain.KindArticle, ID: a.ID}
		if i, ok := m.byID[key]; ok {
			m.articles[i] = a
			continue
		}
		m.byID[key] = len(m.articles)
		m.articles = append(m.articles, a)
	}
}

// Event returns a single event by id
func (m *Memory) Event(id string) (*domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[domain.ItemKey{Kind: domain.KindEvent, ID: id}]
	if !ok {
		return nil, ErrNotFound
	}
	return m.events[i], nil
}

// ListEvents returns a copy of the events matching opts
func (m *Memory) ListEvents(ctx context.Context, opts ListOptions) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	out := logic.FilterEvents(m.events, logic.EventQuery{Status: opts.Status})
	return limit(out, opts.Limit), nil
}

// ListArticles returns a copy of the articles matching opts
func (m *Memory) ListArticles(ctx context.Context, opts ListOptions) ([]*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := logic.FilterArticles(m.articles, logic.ArticleQuery{Category: opts.Category})
	return limit(out, opts.Limit), nil
}

// SearchEvents returns up to limit events whose text matches term
func (m *Memory) SearchEvents(ctx context.Context, term string, n int) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return limit(logic.FilterEvents(m.events, logic.EventQuery{Term: term}), n), nil
}

// SearchArticles returns up to limit articles whose text matches term
func (m *Memory) SearchArticles(ctx context.Context, term string, n int) ([]*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return limit(logic.FilterArticles(m.articles, logic.ArticleQuery{Term: term}), n), nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return slices.Clip(items[:n])
	}
	return items
}
