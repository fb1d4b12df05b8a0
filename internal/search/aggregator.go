// Package search fans a text query out to several sources and keeps only
// the answer to the most recent query.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hackhub/internal/domain"
	"hackhub/internal/source"
)

// DefaultLimit is the per-source cap on results
const DefaultLimit = 5

var (
	// ErrSourceUnavailable marks the failure of a single source
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrAllSourcesFailed is returned when no source produced results
	ErrAllSourcesFailed = errors.New("all sources failed")
)

// SourceError records why one source dropped out of a search
type SourceError struct {
	Kind domain.Kind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source: %v", e.Kind, e.Err)
}

// Unwrap exposes both ErrSourceUnavailable and the underlying cause
func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// Outcome is the settled result of one aggregated search
type Outcome struct {
	Query  string
	Items  []domain.ResultItem
	Failed []*SourceError
}

// Partial reports whether some, but not necessarily all, sources failed
func (o Outcome) Partial() bool { return len(o.Failed) > 0 }

// FailedKinds lists the kinds of the sources that failed
func (o Outcome) FailedKinds() []domain.Kind {
	kinds := make([]domain.Kind, 0, len(o.Failed))
	for _, f := range o.Failed {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

// Searcher runs one aggregated search
type Searcher interface {
	Search(ctx context.Context, term string) (Outcome, error)
}

// ProgressSearcher is a Searcher that also reports what it has so far each
// time one of its sources settles
type ProgressSearcher interface {
	Searcher
	SearchProgress(ctx context.Context, term string, progress func(Outcome)) (Outcome, error)
}

// Aggregator queries every source concurrently and concatenates the hits
// in source order.
type Aggregator struct {
	sources []source.Source
	limit   int
	timeout time.Duration
	logger  *zap.Logger
	settled func(term string, out Outcome, err error)
}

var _ ProgressSearcher = (*Aggregator)(nil)

// Option configures an Aggregator
type Option func(*Aggregator)

// WithLimit sets the per-source result cap
func WithLimit(n int) Option { return func(a *Aggregator) { a.limit = n } }

// WithSourceTimeout bounds each source query. Zero means no bound.
func WithSourceTimeout(d time.Duration) Option { return func(a *Aggregator) { a.timeout = d } }

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// WithSettledHook registers a callback invoked after every search settles
func WithSettledHook(fn func(term string, out Outcome, err error)) Option {
	return func(a *Aggregator) { a.settled = fn }
}

// NewAggregator creates an aggregator over sources
func NewAggregator(sources []source.Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: sources,
		limit:   DefaultLimit,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.limit <= 0 {
		a.limit = DefaultLimit
	}
	return a
}

// Search queries all sources for term. A blank term returns an empty
// outcome without touching any source. A failing source is dropped from
// the result and recorded in Outcome.Failed; only when every source fails
// is ErrAllSourcesFailed returned.
func (a *Aggregator) Search(ctx context.Context, term string) (Outcome, error) {
	return a.SearchProgress(ctx, term, nil)
}

// SearchProgress is Search, calling progress with the outcome of the
// sources settled so far each time one of them answers or fails. Calls to
// progress are serialized and stop once ctx is done.
func (a *Aggregator) SearchProgress(ctx context.Context, term string, progress func(Outcome)) (out Outcome, err error) {
	term = strings.TrimSpace(term)
	out.Query = term
	if a.settled != nil {
		defer func() { a.settled(term, out, err) }()
	}
	if term == "" || len(a.sources) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	results := make([][]domain.ResultItem, len(a.sources))
	failures := make([]error, len(a.sources))
	done := make([]bool, len(a.sources))

	// Sources never fail the group, each records its own error
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			items, qerr := a.query(gctx, src, term)
			if qerr != nil && ctx.Err() == nil {
				a.logger.Warn("search source failed",
					zap.String("source", string(src.Kind())),
					zap.String("query", term),
					zap.Error(qerr))
			}

			mu.Lock()
			defer mu.Unlock()
			results[i], failures[i], done[i] = items, qerr, true
			if progress != nil && ctx.Err() == nil {
				progress(a.collect(term, results, failures, done))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Outcome{Query: term}, err
	}

	out = a.collect(term, results, failures, done)
	if len(out.Failed) == len(a.sources) {
		errs := make([]error, 0, len(out.Failed)+1)
		errs = append(errs, ErrAllSourcesFailed)
		for _, f := range out.Failed {
			errs = append(errs, f)
		}
		return out, errors.Join(errs...)
	}
	return out, nil
}

// collect merges the settled sources in source order
func (a *Aggregator) collect(term string, results [][]domain.ResultItem, failures []error, done []bool) Outcome {
	out := Outcome{Query: term}
	for i, src := range a.sources {
		if !done[i] {
			continue
		}
		if failures[i] != nil {
			out.Failed = append(out.Failed, &SourceError{Kind: src.Kind(), Err: failures[i]})
			continue
		}
		items := results[i]
		if len(items) > a.limit {
			items = items[:a.limit]
		}
		out.Items = append(out.Items, items...)
	}
	return out
}

func (a *Aggregator) query(ctx context.Context, src source.Source, term string) (items []domain.ResultItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return src.Query(ctx, term, a.limit)
}
