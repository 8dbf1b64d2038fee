package server

import (
	"encoding/json"
	"net/http"

	"facet/internal/api"
	"facet/internal/inspection"
	"facet/internal/logging"
	"facet/internal/services"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// writeError maps a classified error onto the wire. Conflicts carry the
// session's current state so the client can resynchronize instead of
// guessing.
func (s *Server) writeError(w http.ResponseWriter, err error, session *inspection.Session) {
	payload := api.ErrorResponse{
		Error: err.Error(),
		Code:  services.Code(err),
	}
	if session != nil {
		snapshot := api.FromSession(session)
		payload.Session = &snapshot
	}
	s.writeJSON(w, services.HTTPStatus(err), payload)
}
