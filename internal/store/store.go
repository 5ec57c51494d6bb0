package store

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("session not found")

// Store keeps scheduled sessions in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// New wraps pool. Start dates are stored without a zone and read back as
// wall-clock times in loc.
func New(pool *pgxpool.Pool, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{pool: pool, loc: loc}
}

func (s *Store) Migrate(ctx context.Context) error {
	b, err := migrations.ReadFile("migrations/postgres.sql")
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, string(b))
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// wallClock drops the zone but keeps the clock reading, which is what a
// TIMESTAMP column holds.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
