// Package sqlite stores events and articles in a local SQLite file using
// the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"hackhub/internal/domain"
	"hackhub/internal/source"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	slug        TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	image_url   TEXT NOT NULL DEFAULT '',
	mode        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	starts_at   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);

CREATE TABLE IF NOT EXISTS articles (
	id             TEXT PRIMARY KEY,
	slug           TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL,
	excerpt        TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	featured_image TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	author         TEXT NOT NULL DEFAULT '',
	published_at   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
`

// Store is a source.Store backed by SQLite
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ source.Store = (*Store)(nil)

type config struct {
	busyTimeout int
	mkdirAll    bool
	logger      *zap.Logger
}

// Option customises Open
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates the parent directory of the database file
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithLogger sets the logger used for import progress
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.logger = l } }

// Open opens (and creates if needed) the database at path. Use ":memory:"
// for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: 10_000, logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}

	memory := path == ":memory:"
	if cfg.mkdirAll && !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection gets them
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.busyTimeout))
	q.Add("_pragma", "foreign_keys(1)")
	if !memory {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	dsn := "file:" + path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if memory {
		// Each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Store{db: db, logger: cfg.logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Import upserts the records in a single transaction
func (s *Store) Import(ctx context.Context, events []*domain.Event, articles []*domain.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	evStmt, err := tx.PrepareContext(ctx, `
INSERT INTO events (id, slug, title, description, tags, image_url, mode, status, location, starts_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	slug=excluded.slug, title=excluded.title, description=excluded.description,
	tags=excluded.tags, image_url=excluded.image_url, mode=excluded.mode,
	status=excluded.status, location=excluded.location, starts_at=excluded.starts_at`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare events: %w", err)
	}
	defer evStmt.Close()

	for _, e := range events {
		if e == nil {
			continue
		}
		tags, err := encodeTags(e.Tags)
		if err != nil {
			return err
		}
		if _, err := evStmt.ExecContext(ctx, e.ID, e.Slug, e.Title, e.Description, tags,
			e.ImageURL, string(e.Mode), string(e.Status), e.Location, formatTime(e.StartsAt)); err != nil {
			return fmt.Errorf("sqlite: insert event %s: %w", e.ID, err)
		}
	}

	arStmt, err := tx.PrepareContext(ctx, `
INSERT INTO articles (id, slug, title, excerpt, content, tags, featured_image, category, author, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	slug=excluded.slug, title=excluded.title, excerpt=excluded.excerpt,
	content=excluded.content, tags=excluded.tags, featured_image=excluded.featured_image,
	category=excluded.category, author=excluded.author, published_at=excluded.published_at`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare articles: %w", err)
	}
	defer arStmt.Close()

	for _, a := range articles {
		if a == nil {
			continue
		}
		tags, err := encodeTags(a.Tags)
		if err != nil {
			return err
		}
		if _, err := arStmt.ExecContext(ctx, a.ID, a.Slug, a.Title, a.Excerpt, a.Content, tags,
			a.FeaturedImage, string(a.Category), a.Author, formatTime(a.PublishedAt)); err != nil {
			return fmt.Errorf("sqlite: insert article %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	s.logger.Info("imported records", zap.Int("events", len(events)), zap.Int("articles", len(articles)))
	return nil
}

const eventColumns = `id, slug, title, description, tags, image_url, mode, status, location, starts_at`

const articleColumns = `id, slug, title, excerpt, content, tags, featured_image, category, author, published_at`

// ListEvents returns events in insertion order
func (s *Store) ListEvents(ctx context.Context, opts source.ListOptions) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	if !opts.Status.IsAll() {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY rowid` + limitClause(opts.Limit)
	return s.queryEvents(ctx, query, args...)
}

// ListArticles returns articles in insertion order
func (s *Store) ListArticles(ctx context.Context, opts source.ListOptions) ([]*domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if !opts.Category.IsAll() {
		query += ` WHERE category = ?`
		args = append(args, string(opts.Category))
	}
	query += ` ORDER BY rowid` + limitClause(opts.Limit)
	return s.queryArticles(ctx, query, args...)
}

// SearchEvents matches term against title, description and tags. SQLite's
// LIKE only folds ASCII case.
func (s *Store) SearchEvents(ctx context.Context, term string, limit int) ([]*domain.Event, error) {
	pattern := likePattern(term)
	query := `SELECT ` + eventColumns + ` FROM events
WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'
ORDER BY rowid` + limitClause(limit)
	return s.queryEvents(ctx, query, pattern, pattern, pattern)
}

// SearchArticles matches term against title, excerpt, content and tags
func (s *Store) SearchArticles(ctx context.Context, term string, limit int) ([]*domain.Article, error) {
	pattern := likePattern(term)
	query := `SELECT ` + articleColumns + ` FROM articles
WHERE title LIKE ? ESCAPE '\' OR excerpt LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'
ORDER BY rowid` + limitClause(limit)
	return s.queryArticles(ctx, query, pattern, pattern, pattern, pattern)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query events: %w", err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var (
			e             domain.Event
			tags, startAt string
			mode, status  string
		)
		if err := rows.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &tags, &e.ImageURL,
			&mode, &status, &e.Location, &startAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan event: %w", err)
		}
		e.Mode = domain.EventMode(mode)
		e.Status = domain.EventStatus(status)
		if e.Tags, err = decodeTags(tags); err != nil {
			s.logger.Warn("skipping event with malformed tags", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		e.StartsAt = parseTime(startAt)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate events: %w", err)
	}
	return out, nil
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...any) ([]*domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query articles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Article
	for rows.Next() {
		var (
			a               domain.Article
			tags, published string
			category        string
		)
		if err := rows.Scan(&a.ID, &a.Slug, &a.Title, &a.Excerpt, &a.Content, &tags,
			&a.FeaturedImage, &category, &a.Author, &published); err != nil {
			return nil, fmt.Errorf("sqlite: scan article: %w", err)
		}
		a.Category = domain.ArticleCategory(category)
		if a.Tags, err = decodeTags(tags); err != nil {
			s.logger.Warn("skipping article with malformed tags", zap.String("id", a.ID), zap.Error(err))
			continue
		}
		a.PublishedAt = parseTime(published)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate articles: %w", err)
	}
	return out, nil
}

// Event returns a single event by id
func (s *Store) Event(ctx context.Context, id string) (*domain.Event, error) {
	events, err := s.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event %s: %w", id, source.ErrNotFound)
	}
	return events[0], nil
}

func limitClause(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
