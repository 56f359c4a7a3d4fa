package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/edoliveri/parley/internal/config"
	"github.com/edoliveri/parley/internal/meeting"
	"github.com/edoliveri/parley/internal/notify"
	"github.com/edoliveri/parley/internal/observability"
	"github.com/edoliveri/parley/internal/relay"
)

type Server struct {
	cfg      config.Config
	meetings *meeting.Registry
	hub      *relay.Hub
	notifier notify.Notifier
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, meetings *meeting.Registry, hub *relay.Hub, notifier notify.Notifier, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		meetings: meetings,
		hub:      hub,
		notifier: notifier,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the same
				// origin. Possession of a meeting token is the only credential, so
				// at least keep other websites from driving a visitor's handshake.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/meetings", s.handleCreateMeeting)
	r.Post("/v1/meetings/{id}/slot", s.handleConfirmSlot)
	r.Get("/v1/meetings/{id}", s.handleGetMeeting)
	r.Get("/v1/meetings/{id}/validate", s.handleValidateMeeting)
	r.Get("/join/{id}", s.handleValidateMeeting)
	r.Get("/v1/signal/ws", s.handleSignalWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req meeting.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	m, err := s.meetings.Create(r.Context(), req.RecipientContact)
	switch {
	case errors.Is(err, meeting.ErrMissingContact):
		respondError(w, http.StatusBadRequest, "missing_contact", err.Error())
		return
	case errors.Is(err, meeting.ErrTokenExhausted):
		respondError(w, http.StatusInternalServerError, "token_exhausted", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	s.metrics.MeetingEvents.WithLabelValues("created").Inc()
	s.refreshLiveGauge(r)

	resp := meeting.CreateResponse{
		ID:        m.ID,
		Status:    m.Status,
		ExpiresAt: m.ExpiresAt,
		JoinLink:  s.cfg.PublicBaseURL + "/join/" + m.ID,
	}

	// Delivery is best-effort: the meeting stays usable via its id even
	// when the invitation message never goes out.
	err = s.notifier.Deliver(r.Context(), notify.Invitation{
		Contact:   m.RecipientContact,
		MeetingID: m.ID,
		JoinLink:  resp.JoinLink,
		ExpiresIn: s.meetings.TTL(),
	})
	if err != nil {
		s.metrics.MeetingEvents.WithLabelValues("notify_failed").Inc()
		resp.NotificationError = err.Error()
	} else {
		resp.NotificationSent = true
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleConfirmSlot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req meeting.ConfirmSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	m, err := s.meetings.ConfirmSlot(r.Context(), id, req.SlotTime)
	switch {
	case errors.Is(err, meeting.ErrInvalidSlot):
		respondError(w, http.StatusBadRequest, "invalid_slot_time", err.Error())
		return
	case errors.Is(err, meeting.ErrNotFound):
		respondError(w, http.StatusNotFound, "meeting_not_found", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	s.metrics.MeetingEvents.WithLabelValues("slot_confirmed").Inc()
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.meetings.Get(r.Context(), id)
	if errors.Is(err, meeting.ErrNotFound) {
		respondError(w, http.StatusNotFound, "meeting_not_found", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// handleValidateMeeting always answers 200: stale or mistyped links
// are an expected input, and the reason field carries the verdict.
func (s *Server) handleValidateMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := s.meetings.Validate(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.metrics.MeetingEvents.WithLabelValues("validated").Inc()
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) refreshLiveGauge(r *http.Request) {
	if n, err := s.meetings.LiveCount(r.Context()); err == nil {
		s.metrics.LiveMeetings.Set(float64(n))
	}
}

func (s *Server) storeMode() string {
	if strings.TrimSpace(s.cfg.DatabaseURL) == "" {
		return "in-memory"
	}
	return "postgres"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
