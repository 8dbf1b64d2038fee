package server

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"facet/internal/api"
	"facet/internal/inspection"
)

func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// handleListSessions returns one page of sessions together with the digest
// of the whole scope. Paging parameters never influence the digest.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	operator := operatorFrom(r)
	limit, offset := pageParams(r, s.cfg.Sync.PageSize)

	opts := inspection.ListOptions{
		Operator: operator,
		Limit:    limit,
		Offset:   offset,
	}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		opts.Status = inspection.Status(status)
	}

	sessions, err := s.store.ListSessions(r.Context(), opts)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	digest, err := s.store.SessionDigest(r.Context(), operator)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}

	s.writeJSON(w, http.StatusOK, api.SessionListResponse{
		Sessions:            api.FromSessions(sessions),
		Checksum:            digest,
		SyncIntervalSeconds: s.cfg.Sync.CheckIntervalSeconds,
	})
}

// handleSessionsCheck is the cheap change-detection endpoint: digest only,
// no payload.
func (s *Server) handleSessionsCheck(w http.ResponseWriter, r *http.Request) {
	digest, err := s.store.SessionDigest(r.Context(), operatorFrom(r))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ChecksumResponse{Checksum: digest})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if _, err := s.store.SessionByID(r.Context(), id); err != nil {
		s.writeError(w, err, nil)
		return
	}

	limit, offset := pageParams(r, s.cfg.Sync.PageSize)
	scans, err := s.store.ListScans(r.Context(), id, limit, offset)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	digest, err := s.store.ScanDigest(r.Context(), id)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ScanListResponse{
		Scans:    api.FromScans(scans),
		Checksum: digest,
	})
}

func (s *Server) handleScansCheck(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	digest, err := s.store.ScanDigest(r.Context(), id)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ChecksumResponse{Checksum: digest})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := api.DaemonStatus{
		Running:      true,
		PID:          os.Getpid(),
		DatabasePath: s.store.Path(),
		DetectorURL:  s.cfg.Detector.BaseURL,
	}
	if s.camera != nil {
		present := s.camera.Present()
		status.CameraPresent = &present
	}

	open := 0
	for _, st := range []inspection.Status{inspection.StatusActive, inspection.StatusPaused} {
		sessions, err := s.store.ListSessions(r.Context(), inspection.ListOptions{Status: st})
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		open += len(sessions)
	}
	status.OpenSessions = open

	s.writeJSON(w, http.StatusOK, status)
}
