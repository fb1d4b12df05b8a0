package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hackhub/internal/api"
	"hackhub/internal/domain"
	"hackhub/internal/seed"
	"hackhub/internal/source"
)

func newRoundTrip(t *testing.T) *Client {
	t.Helper()
	d := seed.Default()
	srv := httptest.NewServer(api.New(source.NewMemory(d.Events, d.Articles)).Router())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestClientAgainstAPI(t *testing.T) {
	ctx := context.Background()
	c := newRoundTrip(t)

	events, err := c.ListEvents(ctx, source.ListOptions{Status: domain.StatusCompleted})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, domain.StatusCompleted, e.Status)
	}

	articles, err := c.ListArticles(ctx, source.ListOptions{Limit: 4})
	require.NoError(t, err)
	assert.Len(t, articles, 4)

	hits, err := c.SearchEvents(ctx, "meetup", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "e2", hits[0].ID)

	found, err := c.SearchArticles(ctx, "debounce", 5)
	require.NoError(t, err)
	require.NotEmpty(t, found)
}

func TestClientServesAsSearchSource(t *testing.T) {
	c := newRoundTrip(t)
	hits, err := source.Events(c).Query(context.Background(), "hackathon", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
	assert.Equal(t, domain.KindEvent, hits[0].Type)
}

func TestClientStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(api.RequestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream store unavailable"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.ListEvents(context.Background(), source.ListOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream store unavailable")
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.SearchArticles(context.Background(), "go", 5)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}
