package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/domain"
)

func TestDefaultSeedLoads(t *testing.T) {
	d := Default()
	require.NotEmpty(t, d.Events)
	require.NotEmpty(t, d.Articles)

	first := d.Events[0]
	assert.Equal(t, "e1", first.ID)
	assert.Equal(t, domain.ModeOnline, first.Mode)
	assert.Equal(t, domain.StatusUpcoming, first.Status)
	assert.Equal(t, 2026, first.StartsAt.Year())
	assert.Contains(t, first.Tags, "hackathon")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("events:\n  - id: x\n    titel: typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode seed")
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	src := `
events:
  - id: "1"
    title: one
  - id: "1"
    title: again
`
	_, err := Load(strings.NewReader(src))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSameIDAcrossKindsIsAllowed(t *testing.T) {
	src := `
events:
  - id: "1"
    title: event
articles:
  - id: "1"
    title: article
`
	d, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, d.Events, 1)
	assert.Len(t, d.Articles, 1)
}

func TestLoadEmptyInput(t *testing.T) {
	d, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, d.Events)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("articles:\n  - id: a\n    title: A\n    category: news\n"), 0o644))

	d, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, d.Articles, 1)
	assert.Equal(t, domain.CategoryNews, d.Articles[0].Category)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
