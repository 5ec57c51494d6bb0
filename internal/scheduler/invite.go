package scheduler

import (
	"context"
	"errors"
	"strings"

	"session-scheduler/internal/calendar"
)

var ErrForbidden = errors.New("passcode does not match")

// Invite renders an .ics file for a stored session. Only the passcode is
// checked; the file can be fetched outside the join window. A missing
// session yields store.ErrNotFound.
func (s *Scheduler) Invite(ctx context.Context, sessionName, passcode string) ([]byte, error) {
	ss, err := s.store.SessionByName(ctx, sessionName)
	if err != nil {
		return nil, err
	}
	if !passcodeMatches(ss.PassCode, passcode) {
		return nil, ErrForbidden
	}

	link, err := JoinLink(s.cfg.JoinBaseURL, ss.SessionName, ss.PassCode)
	if err != nil {
		return nil, err
	}
	inv := calendar.Invite{
		UID:         ss.SessionName + "@session-scheduler",
		Summary:     EventSummary,
		Location:    EventLocation,
		Description: eventDescriptionPrefix + link,
		Organizer:   ss.HostEmail,
		Attendee:    ss.AttendeeEmail,
		Start:       ss.StartDate,
		End:         ss.StartDate.Add(SessionDuration),
		Status:      strings.ToUpper(EventStatus),
	}
	return inv.Encode(s.now())
}
