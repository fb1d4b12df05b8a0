// Package seed loads event and article fixtures from YAML.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"hackhub/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

// Data is a fixture file
type Data struct {
	Events   []*domain.Event   `yaml:"events"`
	Articles []*domain.Article `yaml:"articles"`
}

// ErrInvalid is returned for fixtures that decode but are unusable
var ErrInvalid = errors.New("invalid seed data")

// Load decodes fixtures from r. Unknown fields are rejected so typos in
// hand-written files surface early.
func Load(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Data
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return &d, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads fixtures from a file
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the fixtures bundled with the binary
func Default() *Data {
	d, err := Load(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded seed: %v", err))
	}
	return d
}

func (d *Data) validate() error {
	seen := make(map[domain.ItemKey]bool)
	for i, e := range d.Events {
		if e == nil || e.ID == "" {
			return fmt.Errorf("%w: event #%d has no id", ErrInvalid, i)
		}
		key := domain.ItemKey{Kind: domain.KindEvent, ID: e.ID}
		if seen[key] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalid, key)
		}
		seen[key] = true
	}
	for i, a := range d.Articles {
		if a == nil || a.ID == "" {
			return fmt.Errorf("%w: article #%d has no id", ErrInvalid, i)
		}
		key := domain.ItemKey{Kind: domain.KindArticle, ID: a.ID}
		if seen[key] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalid, key)
		}
		seen[key] = true
	}
	return nil
}
