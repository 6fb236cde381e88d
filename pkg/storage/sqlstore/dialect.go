package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects driver name, placeholder style and DDL.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect accepts the driver names used in configuration.
func ParseDialect(value string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return "", fmt.Errorf("sqlstore: unsupported dialect %q", value)
}

func (d Dialect) driverName() string {
	return string(d)
}

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema(table string) []string {
	switch d {
	case MySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id VARCHAR(36) NOT NULL PRIMARY KEY,
				client_id VARCHAR(191) NOT NULL,
				page_id VARCHAR(191) NOT NULL,
				layout_config LONGTEXT NOT NULL,
				grid_density VARCHAR(16) NOT NULL DEFAULT 'normal',
				created_at VARCHAR(40) NOT NULL,
				updated_at VARCHAR(40) NOT NULL,
				deleted_at VARCHAR(40) NULL,
				INDEX idx_` + table + `_client_page (client_id, page_id)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id VARCHAR(36) NOT NULL PRIMARY KEY,
				client_id VARCHAR(191) NOT NULL,
				page_id VARCHAR(191) NOT NULL,
				layout_config TEXT NOT NULL,
				grid_density VARCHAR(16) NOT NULL DEFAULT 'normal',
				created_at VARCHAR(40) NOT NULL,
				updated_at VARCHAR(40) NOT NULL,
				deleted_at VARCHAR(40) NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_` + table + `_client_page ON ` + table + ` (client_id, page_id)`,
		}
	}
}
