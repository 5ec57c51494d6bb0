package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"session-scheduler/internal/model"
)

func (s *Store) InsertSession(ctx context.Context, ss *model.ScheduledSession) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scheduled_session (start_date, session_name, passcode, host_email, attendee_email)
		 VALUES ($1,$2,$3,$4,$5)`,
		wallClock(ss.StartDate.In(s.loc)), ss.SessionName, ss.PassCode, ss.HostEmail, ss.AttendeeEmail,
	)
	return err
}

func (s *Store) SessionByName(ctx context.Context, name string) (*model.ScheduledSession, error) {
	ss := &model.ScheduledSession{}
	err := s.pool.QueryRow(ctx,
		`SELECT session_name, start_date, passcode, host_email, attendee_email, created_at
		 FROM scheduled_session WHERE session_name = $1`, name,
	).Scan(&ss.SessionName, &ss.StartDate, &ss.PassCode, &ss.HostEmail, &ss.AttendeeEmail, &ss.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ss.StartDate = inLocation(ss.StartDate, s.loc)
	return ss, nil
}
