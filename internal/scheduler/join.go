package scheduler

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"session-scheduler/internal/model"
	"session-scheduler/internal/store"
)

const (
	JoinBeforeStart = 15 * time.Minute
	JoinAfterEnd    = 15 * time.Minute
)

type Outcome int

const (
	Allowed Outcome = iota
	NotFound
	PasscodeMismatch
	TooEarly
	TooLate
)

var reasons = map[Outcome]string{
	NotFound:         "No valid session could be found",
	PasscodeMismatch: "You are not allowed to access this session",
	TooEarly:         "This session has not started yet, please try again later, but no earlier than 15 minutes before start",
	TooLate:          "This session has already ended and can no longer be joined",
}

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case NotFound:
		return "not_found"
	case PasscodeMismatch:
		return "passcode_mismatch"
	case TooEarly:
		return "too_early"
	case TooLate:
		return "too_late"
	}
	return "unknown"
}

// Verdict is the answer to a join attempt. Reason is empty when the join
// is allowed.
type Verdict struct {
	Outcome Outcome
	Reason  string
	Session *model.ScheduledSession
}

func (v Verdict) Allowed() bool { return v.Outcome == Allowed }

func verdict(o Outcome, ss *model.ScheduledSession) Verdict {
	return Verdict{Outcome: o, Reason: reasons[o], Session: ss}
}

// CheckJoin applies the join rules to ss at now. The first violated rule
// decides, in order: passcode, too early, too late. The window
// [start-15m, start+duration+15m] is inclusive at both ends.
func CheckJoin(ss *model.ScheduledSession, passcode string, now time.Time) Verdict {
	if ss == nil {
		return verdict(NotFound, nil)
	}
	if !passcodeMatches(ss.PassCode, passcode) {
		return verdict(PasscodeMismatch, ss)
	}
	if now.Before(ss.StartDate.Add(-JoinBeforeStart)) {
		return verdict(TooEarly, ss)
	}
	if now.After(ss.StartDate.Add(SessionDuration + JoinAfterEnd)) {
		return verdict(TooLate, ss)
	}
	return verdict(Allowed, ss)
}

func passcodeMatches(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// ValidateJoin looks the session up and applies CheckJoin. An unknown
// session is a verdict, not an error; only store failures are returned as
// errors.
func (s *Scheduler) ValidateJoin(ctx context.Context, sessionName, passcode string) (Verdict, error) {
	ss, err := s.store.SessionByName(ctx, sessionName)
	if errors.Is(err, store.ErrNotFound) {
		return verdict(NotFound, nil), nil
	}
	if err != nil {
		return Verdict{}, err
	}

	v := CheckJoin(ss, passcode, s.now())
	if !v.Allowed() {
		s.log.Info().Str("session", sessionName).Stringer("outcome", v.Outcome).Msg("join rejected")
	}
	return v, nil
}
