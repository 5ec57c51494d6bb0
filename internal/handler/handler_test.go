package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"session-scheduler/internal/auth"
	"session-scheduler/internal/handler"
	"session-scheduler/internal/middleware"
	"session-scheduler/internal/model"
	"session-scheduler/internal/scheduler"
	"session-scheduler/internal/store"
)

type fakeScheduler struct {
	got       scheduler.Request
	conf      *scheduler.Confirmation
	err       error
	verdict   scheduler.Verdict
	verdictEr error
	ics       []byte
	inviteErr error
}

func (f *fakeScheduler) Schedule(ctx context.Context, req scheduler.Request) (*scheduler.Confirmation, error) {
	f.got = req
	if req.AttendeeEmail == "" || req.SessionDate.IsZero() {
		return nil, scheduler.ErrMissingInput
	}
	return f.conf, f.err
}

func (f *fakeScheduler) ValidateJoin(ctx context.Context, name, pass string) (scheduler.Verdict, error) {
	return f.verdict, f.verdictEr
}

func (f *fakeScheduler) Invite(ctx context.Context, name, pass string) ([]byte, error) {
	return f.ics, f.inviteErr
}

func setup(t *testing.T, fs *fakeScheduler, rl *middleware.RateLimiter) http.Handler {
	t.Helper()
	h, err := handler.New(fs, auth.NewSigner("key", "secret"), time.UTC, rl, zerolog.Nop())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h.Routes()
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	rec := get(setup(t, &fakeScheduler{}, nil), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/scheduled"`) {
		t.Error("form missing")
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("request id missing")
	}
}

func TestUnknownPath(t *testing.T) {
	if rec := get(setup(t, &fakeScheduler{}, nil), "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status: %d", rec.Code)
	}
}

func TestLivez(t *testing.T) {
	rec := get(setup(t, &fakeScheduler{}, nil), "/livez")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestScheduled(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	fs := &fakeScheduler{conf: &scheduler.Confirmation{
		SessionName: "bmFtZQ==",
		PassCode:    "cGFzcw==",
		JoinLink:    "http://localhost:8080/session?passcode=cGFzcw%3D%3D&sessionName=bmFtZQ%3D%3D",
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
	}}
	h := setup(t, fs, nil)

	for _, date := range []string{"2024-01-01T10:00", "2024-01-01T10:00:00"} {
		rec := postForm(h, "/scheduled", url.Values{"attendeeEmail": {"guest@example.com"}, "sessionDate": {date}})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d: %s", date, rec.Code, rec.Body.String())
		}
		if !fs.got.SessionDate.Equal(start) || fs.got.AttendeeEmail != "guest@example.com" {
			t.Errorf("%s: request %+v", date, fs.got)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "2024-01-01 10:00") || !strings.Contains(body, "2024-01-01 11:00") {
			t.Errorf("times missing: %s", body)
		}
		if !strings.Contains(body, "/invite?") {
			t.Errorf("invite link missing: %s", body)
		}
	}
}

func TestScheduledErrors(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		err  error
		want int
	}{
		{"missing email", url.Values{"sessionDate": {"2024-01-01T10:00"}}, nil, http.StatusBadRequest},
		{"missing date", url.Values{"attendeeEmail": {"a@b.c"}}, nil, http.StatusBadRequest},
		{"bad date", url.Values{"attendeeEmail": {"a@b.c"}, "sessionDate": {"tomorrow"}}, nil, http.StatusBadRequest},
		{"remote failure", url.Values{"attendeeEmail": {"a@b.c"}, "sessionDate": {"2024-01-01T10:00"}}, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeScheduler{err: tt.err}
			rec := postForm(setup(t, fs, nil), "/scheduled", tt.form)
			if rec.Code != tt.want {
				t.Fatalf("status: got %d want %d", rec.Code, tt.want)
			}
			if strings.Contains(rec.Body.String(), "boom") {
				t.Error("internal error leaked to the page")
			}
		})
	}
}

func TestSession(t *testing.T) {
	ss := &model.ScheduledSession{SessionName: "abc"}
	tests := []struct {
		name    string
		query   string
		verdict scheduler.Verdict
		err     error
		want    int
		text    string
	}{
		{"allowed", "?sessionName=abc&passcode=pw", scheduler.Verdict{Outcome: scheduler.Allowed, Session: ss}, nil, http.StatusOK, `data-session-name="abc"`},
		{"not found", "?sessionName=abc&passcode=pw", scheduler.Verdict{Outcome: scheduler.NotFound, Reason: "No valid session could be found"}, nil, http.StatusNotFound, "No valid session could be found"},
		{"wrong passcode", "?sessionName=abc&passcode=pw", scheduler.Verdict{Outcome: scheduler.PasscodeMismatch, Reason: "You are not allowed to access this session"}, nil, http.StatusForbidden, "You are not allowed"},
		{"too early", "?sessionName=abc&passcode=pw", scheduler.Verdict{Outcome: scheduler.TooEarly, Reason: "not started yet"}, nil, http.StatusForbidden, "not started yet"},
		{"too late", "?sessionName=abc&passcode=pw", scheduler.Verdict{Outcome: scheduler.TooLate, Reason: "already ended"}, nil, http.StatusForbidden, "already ended"},
		{"missing passcode", "?sessionName=abc", scheduler.Verdict{}, nil, http.StatusBadRequest, ""},
		{"store down", "?sessionName=abc&passcode=pw", scheduler.Verdict{}, errors.New("db"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(setup(t, &fakeScheduler{verdict: tt.verdict, verdictEr: tt.err}, nil), "/session"+tt.query)
			if rec.Code != tt.want {
				t.Fatalf("status: got %d want %d", rec.Code, tt.want)
			}
			if tt.text != "" && !strings.Contains(rec.Body.String(), tt.text) {
				t.Errorf("body missing %q: %s", tt.text, rec.Body.String())
			}
		})
	}
}

func TestJWT(t *testing.T) {
	h := setup(t, &fakeScheduler{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(`{"sessionName":"Meet (1234567)","role":1}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct{ Signature string }
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Count(resp.Signature, ".") != 2 {
		t.Errorf("signature: %q", resp.Signature)
	}
}

func TestJWTBadRequest(t *testing.T) {
	h := setup(t, &fakeScheduler{}, nil)
	for _, body := range []string{
		`not json`,
		`{"role":1}`,
		`{"sessionName":"x"}`,
		`{"sessionName":"x","role":7}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", body, rec.Code)
		}
	}
}

func TestJWTRateLimited(t *testing.T) {
	h := setup(t, &fakeScheduler{}, middleware.NewRateLimiter(0.001, 1))
	call := func() int {
		req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(`{"sessionName":"x","role":0}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if c := call(); c != http.StatusOK {
		t.Fatalf("first: %d", c)
	}
	if c := call(); c != http.StatusTooManyRequests {
		t.Errorf("second: %d", c)
	}
}

func TestInvite(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ics   []byte
		err   error
		want  int
	}{
		{"ok", "?sessionName=abc&passcode=pw", []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil, http.StatusOK},
		{"missing", "?sessionName=abc", nil, nil, http.StatusBadRequest},
		{"not found", "?sessionName=abc&passcode=pw", nil, store.ErrNotFound, http.StatusNotFound},
		{"forbidden", "?sessionName=abc&passcode=pw", nil, scheduler.ErrForbidden, http.StatusForbidden},
		{"failure", "?sessionName=abc&passcode=pw", nil, errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(setup(t, &fakeScheduler{ics: tt.ics, inviteErr: tt.err}, nil), "/invite"+tt.query)
			if rec.Code != tt.want {
				t.Fatalf("status: got %d want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
					t.Errorf("content type: %q", ct)
				}
				if !strings.HasPrefix(rec.Body.String(), "BEGIN:VCALENDAR") {
					t.Errorf("body: %q", rec.Body.String())
				}
			}
		})
	}
}
