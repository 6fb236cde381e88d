package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/pkg/storage/diskvstore"
	"github.com/goliatone/go-gridlayout/pkg/storage/httpstore"
	"github.com/goliatone/go-gridlayout/pkg/storage/mongostore"
	"github.com/goliatone/go-gridlayout/pkg/storage/sqlstore"
)

// keyLister is implemented by repositories that can enumerate stored pages.
type keyLister interface {
	Keys(ctx context.Context) ([]layout.PageKey, error)
}

type diskvLister struct {
	*diskvstore.Store
}

func (d diskvLister) Keys(ctx context.Context) ([]layout.PageKey, error) {
	return d.Store.Keys(ctx), nil
}

func openRepository(ctx context.Context, cfg StoreConfig) (layout.Repository, func() error, error) {
	noop := func() error { return nil }
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory":
		return layout.NewInMemoryRepository(), noop, nil
	case "diskv", "disk", "file":
		store, err := diskvstore.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return diskvLister{store}, noop, nil
	case "mongo", "mongodb":
		store, err := mongostore.Connect(ctx, mongostore.Options{
			URI:        cfg.DSN,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return store.Close(context.Background()) }, nil
	case "http", "remote":
		client, err := httpstore.NewClient(httpstore.Config{BaseURL: cfg.URL, APIKey: cfg.APIKey})
		if err != nil {
			return nil, nil, err
		}
		return client, noop, nil
	}

	dialect, err := sqlstore.ParseDialect(driver)
	if err != nil {
		return nil, nil, fmt.Errorf("layoutctl: unknown store driver %q", cfg.Driver)
	}
	dsn := cfg.DSN
	if dialect == sqlstore.SQLite && dsn == "" {
		dsn = cfg.Path + ".db"
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, nil, fmt.Errorf("layoutctl: ensure store dir: %w", err)
		}
	}
	store, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
