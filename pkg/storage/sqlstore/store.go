package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-gridlayout/components/layout"
)

// DefaultTable holds one row per (client, page).
const DefaultTable = "page_layouts"

// TimestampLayout is fixed width so created_at and updated_at sort
// chronologically as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a Store.
type Options struct {
	Dialect Dialect
	Table   string
	// Now is used for created_at and updated_at; defaults to time.Now.
	Now func() time.Time
}

// Store persists layouts in a SQL table. Rows with deleted_at set are ignored
// on read; ResetLayout removes rows outright.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	now     func() time.Time
}

var _ layout.Repository = (*Store)(nil)

// Open connects with the dialect's driver and creates the table if needed.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}
	store, err := New(db, Options{Dialect: dialect})
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?cache=shared&_pragma=busy_timeout(5000)"
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// New wraps an existing handle. Call Migrate before first use.
func New(db *sql.DB, opts Options) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	if opts.Dialect == "" {
		opts.Dialect = SQLite
	}
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if !tableName.MatchString(opts.Table) {
		return nil, fmt.Errorf("sqlstore: invalid table name %q", opts.Table)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{db: db, dialect: opts.Dialect, table: opts.Table, now: opts.Now}, nil
}

// Migrate creates the layout table and index.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for callers that share it.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FetchLayout returns the newest live row for key, or nil when none exists.
func (s *Store) FetchLayout(ctx context.Context, key layout.PageKey) (*layout.PageLayoutConfig, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	query := s.dialect.rebind(`SELECT layout_config, grid_density FROM ` + s.table +
		` WHERE client_id = ? AND page_id = ? AND deleted_at IS NULL ORDER BY updated_at DESC LIMIT 1`)
	var (
		raw     string
		density sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, key.ClientID, key.PageID).Scan(&raw, &density)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: fetch %s: %w", key, err)
	}
	cfg, err := layout.DecodeStoredLayout([]byte(raw), layout.ParseGridDensity(density.String))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: fetch %s: %w", key, err)
	}
	return cfg, nil
}

// SaveLayout updates the live row for key or inserts a new one.
func (s *Store) SaveLayout(ctx context.Context, key layout.PageKey, cfg layout.PageLayoutConfig) error {
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := layout.MarshalStoredLayout(cfg)
	if err != nil {
		return err
	}
	density := string(layout.ParseGridDensity(string(cfg.GridDensity)))
	now := s.timestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id string
	err = tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT id FROM `+s.table+
		` WHERE client_id = ? AND page_id = ? AND deleted_at IS NULL ORDER BY updated_at DESC LIMIT 1`),
		key.ClientID, key.PageID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, s.dialect.rebind(`INSERT INTO `+s.table+
			` (id, client_id, page_id, layout_config, grid_density, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			uuid.NewString(), key.ClientID, key.PageID, string(data), density, now, now)
	case err == nil:
		_, err = tx.ExecContext(ctx, s.dialect.rebind(`UPDATE `+s.table+
			` SET layout_config = ?, grid_density = ?, updated_at = ? WHERE id = ?`),
			string(data), density, now, id)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: save %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit save %s: %w", key, err)
	}
	return nil
}

// ResetLayout hard-deletes every row for key.
func (s *Store) ResetLayout(ctx context.Context, key layout.PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM `+s.table+` WHERE client_id = ? AND page_id = ?`),
		key.ClientID, key.PageID)
	if err != nil {
		return fmt.Errorf("sqlstore: reset %s: %w", key, err)
	}
	return nil
}

// SoftDelete marks the live row for key deleted without removing it.
func (s *Store) SoftDelete(ctx context.Context, key layout.PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE `+s.table+
		` SET deleted_at = ? WHERE client_id = ? AND page_id = ? AND deleted_at IS NULL`),
		now, key.ClientID, key.PageID)
	if err != nil {
		return fmt.Errorf("sqlstore: soft delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// SaveRaw writes a layout_config document as-is. It exists for migrations and
// for seeding legacy records.
func (s *Store) SaveRaw(ctx context.Context, key layout.PageKey, document []byte, density layout.GridDensity) error {
	if err := key.Validate(); err != nil {
		return err
	}
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`INSERT INTO `+s.table+
		` (id, client_id, page_id, layout_config, grid_density, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), key.ClientID, key.PageID, string(document), string(layout.ParseGridDensity(string(density))), now, now)
	if err != nil {
		return fmt.Errorf("sqlstore: save raw %s: %w", key, err)
	}
	return nil
}

// Keys lists every (client, page) with a live row.
func (s *Store) Keys(ctx context.Context) ([]layout.PageKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT client_id, page_id FROM `+s.table+
		` WHERE deleted_at IS NULL ORDER BY client_id, page_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list keys: %w", err)
	}
	defer rows.Close()
	var keys []layout.PageKey
	for rows.Next() {
		var key layout.PageKey
		if err := rows.Scan(&key.ClientID, &key.PageID); err != nil {
			return nil, fmt.Errorf("sqlstore: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
