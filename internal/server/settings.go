package server

import (
	"encoding/json"
	"net/http"

	"facet/internal/api"
	"facet/internal/services"
	"facet/internal/settings"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := s.settings.Load()
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// handleUpdateSettings applies a partial update. Only fields present in
// the request change; the store bumps the revision.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req api.SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "update settings", "malformed body", err), nil)
		return
	}
	if req.RefreshSeconds != nil && *req.RefreshSeconds <= 0 {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "update settings", "refresh_seconds must be positive", nil), nil)
		return
	}
	if req.DefectAlertThreshold != nil && (*req.DefectAlertThreshold < 0 || *req.DefectAlertThreshold > 100) {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "update settings", "defect_alert_threshold must be a percentage", nil), nil)
		return
	}

	doc, err := s.settings.Update(func(d *settings.Document) {
		if req.RefreshSeconds != nil {
			d.RefreshSeconds = *req.RefreshSeconds
		}
		if req.DefectAlertThreshold != nil {
			d.DefectAlertThreshold = *req.DefectAlertThreshold
		}
		if req.ShowGoodFrames != nil {
			d.ShowGoodFrames = *req.ShowGoodFrames
		}
		if req.SoundAlerts != nil {
			d.SoundAlerts = *req.SoundAlerts
		}
	})
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}
