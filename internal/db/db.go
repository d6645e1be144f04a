package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps the connection pool with the driver it was opened with so
// repositories can write one query for both backends.
type DB struct {
	*sql.DB
	Driver string
}

// Connect opens DATABASE_URL. postgres:// URLs use lib/pq; anything else is
// treated as a SQLite DSN.
func Connect(databaseURL string) (*DB, error) {
	driver, dsn := resolve(databaseURL)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		if strings.Contains(dsn, ":memory:") {
			// every pooled connection would otherwise get its own empty database
			conn.SetMaxOpenConns(1)
		} else {
			conn.SetMaxOpenConns(4)
		}
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: conn, Driver: driver}, nil
}

func resolve(databaseURL string) (driver, dsn string) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return DriverPostgres, databaseURL
	}
	dsn = databaseURL
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}
	return DriverSQLite, dsn
}

// Rebind rewrites ? placeholders into $n for Postgres.
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Migrate applies the embedded schema migrations.
func Migrate(d *DB) error {
	goose.SetBaseFS(embedMigrations)

	dialect := "sqlite3"
	if d.Driver == DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(d.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(d.DB)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.Printf("[database] schema at version %d (%s)", version, d.Driver)
	return nil
}
