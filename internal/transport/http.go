// Package transport exposes the engine to the presentation layer over
// HTTP/JSON.
package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hibikilabs/roomdesk/internal/domain/history"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
	"github.com/hibikilabs/roomdesk/internal/engine"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// Server wires HTTP handlers around the engine.
type Server struct {
	engine  *engine.Engine
	history repository.HistoryRepository
	logger  *slog.Logger
}

// NewRouter creates the HTTP router for the room console.
func NewRouter(eng *engine.Engine, historyRepo repository.HistoryRepository, logger *slog.Logger) *chi.Mux {
	srv := &Server{engine: eng, history: historyRepo, logger: logger}

	r := chi.NewRouter()
	r.Use(srv.gestureMiddleware)

	r.Get("/health", srv.handleHealth)
	r.Get("/now", srv.handleNow)
	r.Get("/rooms", srv.handleRooms)
	r.Get("/sessions", srv.handleSessions)
	r.Get("/alerts", srv.handleAlerts)
	r.Get("/history", srv.handleHistory)

	r.Post("/rooms/{roomID}/session", srv.handleStart)
	r.Post("/rooms/{roomID}/session/extend", srv.handleExtend)
	r.Delete("/rooms/{roomID}/session", srv.handleEnd)
	r.Post("/alerts/{roomID}/ack", srv.handleAck)

	return r
}

// gestureMiddleware treats every incoming request as a user interaction,
// giving a blocked alarm playback its retry opportunity.
func (s *Server) gestureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.engine.UserGesture()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleNow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]time.Time{"now": s.engine.Now()})
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Rooms())
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Sessions())
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ActiveAlerts())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

type startPayload struct {
	StartTime   *time.Time `json:"start_time,omitempty"`
	DurationMin int        `json:"duration_min"`
	Pax         int        `json:"pax"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var payload startPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := engine.StartRequest{DurationMin: payload.DurationMin, Pax: payload.Pax}
	if payload.StartTime != nil {
		req.StartTime = *payload.StartTime
	}

	sess, err := s.engine.StartSession(r.Context(), roomID, req)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

type extendPayload struct {
	Minutes int `json:"minutes"`
}

func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var payload extendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.engine.ExtendSession(r.Context(), roomID, payload.Minutes)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	actor := r.Header.Get("X-Operator")

	if err := s.engine.EndSession(r.Context(), roomID, actor); err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	s.engine.AcknowledgeAlert(roomID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case session.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrRoomNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("command failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
