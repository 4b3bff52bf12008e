package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB, bounds the connection pool, and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:edupulse.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/edupulse?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}

	// Bounded pool so a burst of report reads cannot starve writers.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ts is stored as unix seconds on both drivers so range filters and the
// newest-first ordering behave identically.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS performance_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  lesson_id TEXT,
  learner_id TEXT,
  understanding REAL,
  application REAL,
  communication REAL,
  behavior REAL,
  total REAL,
  ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_perf_ts ON performance_records (ts DESC, id DESC);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS performance_records (
  id BIGSERIAL PRIMARY KEY,
  lesson_id TEXT,
  learner_id TEXT,
  understanding DOUBLE PRECISION,
  application DOUBLE PRECISION,
  communication DOUBLE PRECISION,
  behavior DOUBLE PRECISION,
  total DOUBLE PRECISION,
  ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_perf_ts ON performance_records (ts DESC, id DESC);
`
