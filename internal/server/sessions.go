package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"facet/internal/api"
	"facet/internal/inspection"
	"facet/internal/services"
)

func (s *Server) sessionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "api", "session id", "must be a positive integer", nil)
	}
	return id, nil
}

// requireOwner verifies the requesting operator owns the session. Requests
// without an operator identity are rejected rather than trusted.
func (s *Server) requireOwner(r *http.Request, sessionID int64) (*inspection.Session, error) {
	session, err := s.store.SessionByID(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	operator := operatorFrom(r)
	if operator == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "session", "operator identity is required", nil)
	}
	if operator != session.Operator {
		return nil, services.Wrap(services.ErrForbidden, "api", "session",
			"session belongs to another operator", nil)
	}
	return session, nil
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req api.StartSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, services.Wrap(services.ErrValidation, "api", "start session", "malformed body", err), nil)
			return
		}
	}
	if req.Operator == "" {
		req.Operator = operatorFrom(r)
	}

	session, err := s.machine.Start(r.Context(), req.Operator)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			s.writeError(w, err, session)
			return
		}
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.SessionResponse{Session: api.FromSession(session)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	session, err := s.store.SessionByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(session)})
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	operator := operatorFrom(r)
	if operator == "" {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "current session", "operator is required", nil), nil)
		return
	}
	session, err := s.machine.Current(r.Context(), operator)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(session)})
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	s.runTransition(w, r, s.machine.Pause)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	s.runTransition(w, r, s.machine.Resume)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	s.runTransition(w, r, s.machine.Stop)
}

func (s *Server) runTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*inspection.Session, error)) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if _, err := s.requireOwner(r, id); err != nil {
		s.writeError(w, err, nil)
		return
	}

	session, err := op(r.Context(), id)
	if err != nil {
		// The machine returns the session's current state on conflicts.
		s.writeError(w, err, session)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(session)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	session, err := s.requireOwner(r, id)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if session.Status.Open() {
		s.writeError(w, services.Wrap(services.ErrInvalidState, "api", "delete session",
			"stop the session before deleting it", nil), session)
		return
	}
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
