package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"session-scheduler/internal/model"
)

const sqliteTime = "2006-01-02T15:04:05.999999999"

// SQLite is the single-file backend used for local runs and tests.
type SQLite struct {
	db  *sql.DB
	loc *time.Location
}

// OpenSQLite opens dsn (a path or ":memory:") and applies the schema.
func OpenSQLite(ctx context.Context, dsn string, loc *time.Location) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("sqlite dsn is required")
	}
	if loc == nil {
		loc = time.Local
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps a :memory: database alive across calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")

	s := &SQLite{db: db, loc: loc}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	b, err := migrations.ReadFile("migrations/sqlite.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) InsertSession(ctx context.Context, ss *model.ScheduledSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_session (start_date, session_name, passcode, host_email, attendee_email)
		 VALUES (?,?,?,?,?)`,
		ss.StartDate.In(s.loc).Format(sqliteTime), ss.SessionName, ss.PassCode, ss.HostEmail, ss.AttendeeEmail,
	)
	return err
}

func (s *SQLite) SessionByName(ctx context.Context, name string) (*model.ScheduledSession, error) {
	var start, created string
	ss := &model.ScheduledSession{}
	err := s.db.QueryRowContext(ctx,
		`SELECT session_name, start_date, passcode, host_email, attendee_email, created_at
		 FROM scheduled_session WHERE session_name = ?`, name,
	).Scan(&ss.SessionName, &start, &ss.PassCode, &ss.HostEmail, &ss.AttendeeEmail, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if ss.StartDate, err = time.ParseInLocation(sqliteTime, start, s.loc); err != nil {
		return nil, fmt.Errorf("start_date %q: %w", start, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		ss.CreatedAt = t
	}
	return ss, nil
}
