package main

import (
	"fmt"

	"go.uber.org/zap"

	"hackhub/internal/config"
	"hackhub/internal/seed"
	"hackhub/internal/source"
	"hackhub/internal/source/rest"
	"hackhub/internal/source/sqlite"
)

// openStore builds the configured data source. The returned func releases it.
func openStore(c *config.Config, logger *zap.Logger) (source.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.Source.Driver {
	case config.DriverMemory:
		data := seed.Default()
		return source.NewMemory(data.Events, data.Articles), noop, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(c.Source.Path, sqlite.WithMkdirAll(), sqlite.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil

	case config.DriverREST:
		opts := []rest.Option{rest.WithLogger(logger)}
		if t := c.Source.Timeout(); t > 0 {
			opts = append(opts, rest.WithTimeout(t))
		}
		client, err := rest.New(c.Source.BaseURL, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("open rest source: %w", err)
		}
		return client, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown source driver %q", c.Source.Driver)
}
