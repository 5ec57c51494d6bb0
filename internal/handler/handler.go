package handler

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"session-scheduler/internal/middleware"
	"session-scheduler/internal/scheduler"
)

//go:embed templates/*.html
var templateFS embed.FS

// Scheduler is the workflow the web pages drive.
type Scheduler interface {
	Schedule(ctx context.Context, req scheduler.Request) (*scheduler.Confirmation, error)
	ValidateJoin(ctx context.Context, sessionName, passcode string) (scheduler.Verdict, error)
	Invite(ctx context.Context, sessionName, passcode string) ([]byte, error)
}

type TokenSigner interface {
	Sign(sessionName string, role int) (string, error)
}

type Handler struct {
	sched   Scheduler
	signer  TokenSigner
	loc     *time.Location
	tmpl    *template.Template
	limiter *middleware.RateLimiter
	log     zerolog.Logger
}

// New parses the embedded templates. A nil limiter disables rate limiting.
func New(sched Scheduler, signer TokenSigner, loc *time.Location, limiter *middleware.RateLimiter, log zerolog.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{sched: sched, signer: signer, loc: loc, tmpl: tmpl, limiter: limiter, log: log}, nil
}

// Routes returns the full HTTP surface wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.Handle("POST /scheduled", h.limit(http.HandlerFunc(h.scheduled)))
	mux.HandleFunc("GET /session", h.session)
	mux.Handle("POST /jwt", h.limit(http.HandlerFunc(h.jwt)))
	mux.HandleFunc("GET /invite", h.invite)
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	return middleware.Logging(h.log)(mux)
}

func (h *Handler) limit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return h.limiter.Limit(next)
}

type errorView struct {
	Title   string
	Message string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render")
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, "error.html", errorView{Title: "Error", Message: msg})
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", struct{ Title string }{"Schedule a session"})
}
