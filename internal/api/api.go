// Package api serves events and articles from a Store over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackhub/internal/domain"
	"hackhub/internal/source"
)

// RequestIDHeader carries the per-request id on every response
const RequestIDHeader = "X-Request-Id"

// MaxLimit caps the limit query parameter
const MaxLimit = 100

// ListResponse is the body of every collection endpoint
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

type listParams struct {
	Status   string `query:"status" validate:"omitempty,oneof=all upcoming ongoing completed cancelled"`
	Category string `query:"category" validate:"omitempty,oneof=all tutorial news story opinion"`
	Limit    int    `query:"limit" validate:"min=0,max=100"`
}

type searchParams struct {
	Query string `query:"q" validate:"max=200"`
	Limit int    `query:"limit" validate:"min=0,max=100"`
}

// Server exposes a Store as a JSON API
type Server struct {
	store       source.Store
	logger      *zap.Logger
	validate    *validator.Validate
	searchLimit int
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.logger = l } }

// WithSearchLimit sets the default number of hits a search returns
func WithSearchLimit(n int) Option { return func(s *Server) { s.searchLimit = n } }

// New creates a server over store
func New(store source.Store, opts ...Option) *Server {
	s := &Server{
		store:       store,
		logger:      zap.NewNop(),
		validate:    newValidator(),
		searchLimit: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report query parameter names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", s.listEvents)
		r.Get("/search", s.searchEvents)
	})
	r.Route("/api/articles", func(r chi.Router) {
		r.Get("/", s.listArticles)
		r.Get("/search", s.searchArticles)
	})
	return r
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	var p listParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	events, err := s.store.ListEvents(r.Context(), source.ListOptions{
		Status: domain.EventStatus(p.Status),
		Limit:  p.Limit,
	})
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	writeList(w, events)
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	var p listParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	articles, err := s.store.ListArticles(r.Context(), source.ListOptions{
		Category: domain.ArticleCategory(p.Category),
		Limit:    p.Limit,
	})
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	writeList(w, articles)
}

func (s *Server) searchEvents(w http.ResponseWriter, r *http.Request) {
	var p searchParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(p.Query) == "" {
		writeList(w, []*domain.Event{})
		return
	}
	events, err := s.store.SearchEvents(r.Context(), p.Query, s.limitOr(p.Limit))
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	writeList(w, events)
}

func (s *Server) searchArticles(w http.ResponseWriter, r *http.Request) {
	var p searchParams
	if err := s.bind(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(p.Query) == "" {
		writeList(w, []*domain.Article{})
		return
	}
	articles, err := s.store.SearchArticles(r.Context(), p.Query, s.limitOr(p.Limit))
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	writeList(w, articles)
}

func (s *Server) limitOr(n int) int {
	if n > 0 {
		return n
	}
	return s.searchLimit
}

func (s *Server) storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("store request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", w.Header().Get(RequestIDHeader)),
		zap.Error(err))
	writeError(w, http.StatusBadGateway, errors.New("upstream store unavailable"))
}

// bind copies query parameters into the tagged fields of dst and validates them
func (s *Server) bind(r *http.Request, dst any) error {
	q := r.URL.Query()
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("query")
		raw := q.Get(name)
		if name == "" || raw == "" {
			continue
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			f.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: not a number", name)
			}
			f.SetInt(int64(n))
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q validation", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", w.Header().Get(RequestIDHeader)))
	})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, ListResponse[T]{Data: items, Count: len(items)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}
