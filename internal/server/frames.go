package server

import (
	"io"
	"net/http"
	"time"

	"facet/internal/api"
	"facet/internal/services"
)

// maxFrameBytes bounds one uploaded frame. Inspection cameras produce
// JPEG frames well under this.
const maxFrameBytes = 16 << 20

// handleIngestFrame accepts one captured frame as a multipart upload and
// runs it through the detection pipeline.
func (s *Server) handleIngestFrame(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if _, err := s.requireOwner(r, id); err != nil {
		s.writeError(w, err, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBytes)
	if err := r.ParseMultipartForm(maxFrameBytes); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "ingest frame", "malformed multipart body", err), nil)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "ingest frame", "image part is required", err), nil)
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "ingest frame", "read image part", err), nil)
		return
	}

	capturedAt := time.Now()
	if raw := r.FormValue("captured_at"); raw != "" {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			capturedAt = parsed
		}
	}

	outcome, err := s.machine.ProcessFrame(r.Context(), id, image, header.Filename, capturedAt)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FrameResponse{
		Session: api.FromSession(outcome.Session),
		Scan:    api.FromScan(outcome.Scan),
	})
}
