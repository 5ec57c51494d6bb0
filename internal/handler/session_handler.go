package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"session-scheduler/internal/scheduler"
	"session-scheduler/internal/store"
)

// accepted layouts for the sessionDate form field (datetime-local)
var dateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

const genericFailure = "The session could not be scheduled, please try again later"

type scheduledView struct {
	Title         string
	AttendeeEmail string
	Start         string
	End           string
	TimeZone      string
	JoinLink      string
	InviteLink    string
}

type sessionView struct {
	Title       string
	SessionName string
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, h.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func (h *Handler) scheduled(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form")
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("attendeeEmail"))
	rawDate := strings.TrimSpace(r.PostForm.Get("sessionDate"))

	req := scheduler.Request{AttendeeEmail: email}
	if rawDate != "" {
		d, err := h.parseDate(rawDate)
		if err != nil {
			h.renderError(w, r, http.StatusBadRequest, "Invalid session date")
			return
		}
		req.SessionDate = d
	}

	conf, err := h.sched.Schedule(r.Context(), req)
	if errors.Is(err, scheduler.ErrMissingInput) {
		h.renderError(w, r, http.StatusBadRequest, "Attendee email and session date are required")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("schedule session")
		h.renderError(w, r, http.StatusInternalServerError, genericFailure)
		return
	}

	h.render(w, r, http.StatusOK, "scheduled.html", scheduledView{
		Title:         "Session scheduled",
		AttendeeEmail: email,
		Start:         conf.StartDate.In(h.loc).Format("2006-01-02 15:04"),
		End:           conf.EndDate.In(h.loc).Format("2006-01-02 15:04"),
		TimeZone:      h.loc.String(),
		JoinLink:      conf.JoinLink,
		InviteLink:    inviteLink(conf.SessionName, conf.PassCode),
	})
}

func inviteLink(name, pass string) string {
	q := url.Values{}
	q.Set("sessionName", name)
	q.Set("passcode", pass)
	return "/invite?" + q.Encode()
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, pass := q.Get("sessionName"), q.Get("passcode")
	if name == "" || pass == "" {
		h.renderError(w, r, http.StatusBadRequest, "Session name and passcode are required")
		return
	}

	v, err := h.sched.ValidateJoin(r.Context(), name, pass)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("validate join")
		h.renderError(w, r, http.StatusInternalServerError, "The session could not be loaded, please try again later")
		return
	}
	switch v.Outcome {
	case scheduler.Allowed:
		h.render(w, r, http.StatusOK, "session.html", sessionView{Title: "Session", SessionName: name})
	case scheduler.NotFound:
		h.renderError(w, r, http.StatusNotFound, v.Reason)
	default:
		h.renderError(w, r, http.StatusForbidden, v.Reason)
	}
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, pass := q.Get("sessionName"), q.Get("passcode")
	if name == "" || pass == "" {
		http.Error(w, "sessionName and passcode required", http.StatusBadRequest)
		return
	}

	b, err := h.sched.Invite(r.Context(), name, pass)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, scheduler.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render invite")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="session.ics"`)
	w.Write(b)
}
