package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/salon-booking-board/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-board/internal/session"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

// SessionCookie carries the id of the browser's board session.
const SessionCookie = "board_session"

// Handler serves the board page, its actions and the live channel. Every
// browser gets its own session so one visitor's date never moves another's.
type Handler struct {
	sessions          *session.Manager
	render            *renderer
	logger            *logging.Logger
	metrics           *metrics.BoardMetrics
	backendConfigured bool
}

// NewHandler parses the page templates and returns a Handler.
func NewHandler(sessions *session.Manager, backendConfigured bool, logger *logging.Logger, m *metrics.BoardMetrics) (*Handler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		sessions:          sessions,
		render:            r,
		logger:            logger,
		metrics:           m,
		backendConfigured: backendConfigured,
	}, nil
}

// existingSession resolves the request's cookie without creating anything.
func (h *Handler) existingSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return h.sessions.Get(c.Value)
}

// session resolves the request's session, starting a new one on today's
// date when the cookie is missing or names a session that has been closed.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if s, ok := h.existingSession(r); ok {
		return s
	}
	s := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Page renders the full board.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	var buf bytes.Buffer
	if err := h.render.page(&buf, s.Board.Snapshot()); err != nil {
		h.logger.Error("web: render page", "session_id", s.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// PrevDay moves the caller's board one day back.
func (h *Handler) PrevDay(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Viewer.ChangeDate(actionContext(r), -1)
	h.afterAction(w, r, s)
}

// NextDay moves the caller's board one day forward.
func (h *Handler) NextDay(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Viewer.ChangeDate(actionContext(r), +1)
	h.afterAction(w, r, s)
}

// Refresh reloads settings and bookings for the caller's board.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Viewer.Refresh(actionContext(r))
	h.afterAction(w, r, s)
}

// actionContext keeps request values but not its cancellation: a user who
// navigates away mid-fetch must not turn their board into an error.
func actionContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// afterAction answers scripted clients with the new snapshot and browsers
// without JavaScript with a redirect back to the page.
func (h *Handler) afterAction(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusOK, s.Board.Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Snapshot returns the caller's board as JSON.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.Board.Snapshot())
}

// BoardJS serves the live-update script.
func (h *Handler) BoardJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(boardJS)
}

// HealthCheck reports liveness. It never opens a session.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"backend_configured": h.backendConfigured,
		"sessions":           h.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
