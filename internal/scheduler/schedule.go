package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"session-scheduler/internal/calendar"
	"session-scheduler/internal/events"
	"session-scheduler/internal/model"
)

const (
	SessionDuration = 60 * time.Minute

	EventSummary           = "Meet with our expert: Lars"
	EventLocation          = "Zoom Video SDK session"
	EventStatus            = "confirmed"
	eventDescriptionPrefix = "Your session join link is: \n"

	compensateTimeout = 10 * time.Second
)

var ErrMissingInput = errors.New("attendee email and session date are required")

type TokenIssuer interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

type CalendarGateway interface {
	CreateEvent(ctx context.Context, tok *oauth2.Token, calendarID string, ev calendar.EventRequest) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, tok *oauth2.Token, calendarID, eventID string) error
}

type SessionStore interface {
	InsertSession(ctx context.Context, ss *model.ScheduledSession) error
	SessionByName(ctx context.Context, name string) (*model.ScheduledSession, error)
}

type Notifier interface {
	SessionScheduled(ctx context.Context, ev events.SessionScheduled) error
}

type Config struct {
	// CalendarID is also the host email recorded with each session.
	CalendarID  string
	JoinBaseURL string
	Location    *time.Location
}

type Request struct {
	AttendeeEmail string
	SessionDate   time.Time
}

type Confirmation struct {
	SessionName string
	PassCode    string
	JoinLink    string
	StartDate   time.Time
	EndDate     time.Time
	EventID     string
}

type Scheduler struct {
	cfg      Config
	issuer   TokenIssuer
	calendar CalendarGateway
	store    SessionStore
	notifier Notifier
	rand     Random
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Scheduler)

func WithRandom(r Random) Option { return func(s *Scheduler) { s.rand = r } }

func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

func WithNotifier(n Notifier) Option { return func(s *Scheduler) { s.notifier = n } }

func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

func New(cfg Config, issuer TokenIssuer, gw CalendarGateway, st SessionStore, opts ...Option) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &Scheduler{
		cfg:      cfg,
		issuer:   issuer,
		calendar: gw,
		store:    st,
		rand:     CryptoRandom{},
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule creates the calendar event and stores the private session
// record. If storing fails the calendar event is deleted again.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*Confirmation, error) {
	if strings.TrimSpace(req.AttendeeEmail) == "" || req.SessionDate.IsZero() {
		return nil, ErrMissingInput
	}

	name, err := SessionName(s.rand)
	if err != nil {
		return nil, err
	}
	pass, err := PassCode(s.rand)
	if err != nil {
		return nil, err
	}
	link, err := JoinLink(s.cfg.JoinBaseURL, name, pass)
	if err != nil {
		return nil, err
	}

	start := req.SessionDate
	end := start.Add(SessionDuration)

	tok, err := s.issuer.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	ev, err := s.calendar.CreateEvent(ctx, tok, s.cfg.CalendarID, s.eventRequest(req.AttendeeEmail, start, end, link))
	if err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}

	rec := &model.ScheduledSession{
		SessionName:   name,
		PassCode:      pass,
		StartDate:     start,
		HostEmail:     s.cfg.CalendarID,
		AttendeeEmail: req.AttendeeEmail,
	}
	if err := s.store.InsertSession(ctx, rec); err != nil {
		return nil, s.compensate(ctx, tok, ev.ID, fmt.Errorf("store session: %w", err))
	}

	s.log.Info().
		Str("session", name).
		Str("event_id", ev.ID).
		Time("start", start).
		Msg("session scheduled")

	if s.notifier != nil {
		err := s.notifier.SessionScheduled(ctx, events.SessionScheduled{
			SessionName: name, StartDate: start, EndDate: end, EventID: ev.ID,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("session", name).Msg("publish scheduled event")
		}
	}

	return &Confirmation{
		SessionName: name,
		PassCode:    pass,
		JoinLink:    link,
		StartDate:   start,
		EndDate:     end,
		EventID:     ev.ID,
	}, nil
}

func (s *Scheduler) eventRequest(attendee string, start, end time.Time, link string) calendar.EventRequest {
	tz := s.cfg.Location.String()
	return calendar.EventRequest{
		Start:       calendar.DateTime{DateTime: start.In(s.cfg.Location).Format(calendar.LocalDateTime), TimeZone: tz},
		End:         calendar.DateTime{DateTime: end.In(s.cfg.Location).Format(calendar.LocalDateTime), TimeZone: tz},
		Attendees:   []calendar.Attendee{{Email: attendee}},
		Location:    EventLocation,
		Summary:     EventSummary,
		Description: eventDescriptionPrefix + link,
		Status:      EventStatus,
	}
}

// compensate removes the calendar event created for a session that could
// not be stored. It runs even if the request context is already gone.
func (s *Scheduler) compensate(ctx context.Context, tok *oauth2.Token, eventID string, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	if err := s.calendar.DeleteEvent(ctx, tok, s.cfg.CalendarID, eventID); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID).Msg("orphaned calendar event")
		return errors.Join(cause, fmt.Errorf("delete calendar event %s: %w", eventID, err))
	}
	s.log.Warn().Err(cause).Str("event_id", eventID).Msg("calendar event rolled back")
	return cause
}
