// Package source defines the data stores list pages and search read from
// and adapts them into per-collection search sources.
package source

import (
	"context"
	"errors"
	"fmt"

	"hackhub/internal/domain"
)

// ErrNotFound is returned when a single record lookup misses
var ErrNotFound = errors.New("not found")

// ListOptions narrows a collection fetch. Zero values mean no narrowing.
type ListOptions struct {
	Status   domain.EventStatus
	Category domain.ArticleCategory
	Limit    int
}

// Store provides access to events and articles
type Store interface {
	ListEvents(ctx context.Context, opts ListOptions) ([]*domain.Event, error)
	ListArticles(ctx context.Context, opts ListOptions) ([]*domain.Article, error)
	SearchEvents(ctx context.Context, term string, limit int) ([]*domain.Event, error)
	SearchArticles(ctx context.Context, term string, limit int) ([]*domain.Article, error)
}

// Source is one logical collection queried by the search aggregator
type Source interface {
	Kind() domain.Kind
	Query(ctx context.Context, term string, limit int) ([]domain.ResultItem, error)
}

// SourceFunc adapts a function into a Source
type SourceFunc struct {
	K  domain.Kind
	Fn func(ctx context.Context, term string, limit int) ([]domain.ResultItem, error)
}

func (s SourceFunc) Kind() domain.Kind { return s.K }

func (s SourceFunc) Query(ctx context.Context, term string, limit int) ([]domain.ResultItem, error) {
	return s.Fn(ctx, term, limit)
}

// Events exposes the store's events as a search source
func Events(store Store) Source {
	return SourceFunc{K: domain.KindEvent, Fn: func(ctx context.Context, term string, limit int) ([]domain.ResultItem, error) {
		events, err := store.SearchEvents(ctx, term, limit)
		if err != nil {
			return nil, fmt.Errorf("search events: %w", err)
		}
		items := make([]domain.ResultItem, 0, len(events))
		for _, e := range events {
			if e == nil {
				continue
			}
			items = append(items, EventResult(e))
		}
		return items, nil
	}}
}

// Articles exposes the store's articles as a search source
func Articles(store Store) Source {
	return SourceFunc{K: domain.KindArticle, Fn: func(ctx context.Context, term string, limit int) ([]domain.ResultItem, error) {
		articles, err := store.SearchArticles(ctx, term, limit)
		if err != nil {
			return nil, fmt.Errorf("search articles: %w", err)
		}
		items := make([]domain.ResultItem, 0, len(articles))
		for _, a := range articles {
			if a == nil {
				continue
			}
			items = append(items, ArticleResult(a))
		}
		return items, nil
	}}
}

// EventResult normalizes an event into a search hit
func EventResult(e *domain.Event) domain.ResultItem {
	return domain.ResultItem{
		ID:          e.ID,
		Title:       e.Title,
		Type:        domain.KindEvent,
		Slug:        e.Slug,
		Description: e.Description,
		Tags:        e.Tags,
		Image:       e.ImageURL,
	}
}

// ArticleResult normalizes an article into a search hit
func ArticleResult(a *domain.Article) domain.ResultItem {
	return domain.ResultItem{
		ID:          a.ID,
		Title:       a.Title,
		Type:        domain.KindArticle,
		Slug:        a.Slug,
		Description: a.Excerpt,
		Tags:        a.Tags,
		Image:       a.FeaturedImage,
	}
}

// All returns the standard sources in display order: events, then articles
func All(store Store) []Source {
	return []Source{Events(store), Articles(store)}
}
