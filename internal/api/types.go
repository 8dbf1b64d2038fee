package api

import (
	"encoding/json"
	"math"
	"time"

	"facet/internal/inspection"
	"facet/internal/services/detector"
)

// SessionSnapshot is the wire form of one session. Timestamps are
// RFC 3339 with nanoseconds; Timestamp records when the snapshot was taken
// so clients can order updates from interleaved responses.
type SessionSnapshot struct {
	ID            int64   `json:"id"`
	PublicID      string  `json:"public_id"`
	Operator      string  `json:"operator"`
	Status        string  `json:"status"`
	TotalFrames   int64   `json:"total_frames_processed"`
	DefectCount   int64   `json:"defect_count"`
	GoodCount     int64   `json:"good_count"`
	DefectRate    float64 `json:"defect_rate"`
	GoodRate      float64 `json:"good_rate"`
	ThroughputFPS float64 `json:"throughput_fps"`
	// DurationSeconds is the session's wall-clock length, present once it
	// has ended.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	StartedAt       string  `json:"started_at"`
	EndedAt         string  `json:"ended_at,omitempty"`
	UpdatedAt       string  `json:"updated_at"`
	Timestamp       string  `json:"timestamp"`
}

// ScanRecord is the wire form of one processed frame. Defects is the
// normalized detection list, present only for defect verdicts.
type ScanRecord struct {
	ID                 int64             `json:"id"`
	SessionID          int64             `json:"session_id"`
	FrameIndex         int64             `json:"frame_index"`
	Decision           string            `json:"decision"`
	AnomalyScore       float64           `json:"anomaly_score"`
	ConfidenceLevel    string            `json:"confidence_level"`
	Threshold          float64           `json:"threshold"`
	Defects            []detector.Defect `json:"defects,omitempty"`
	PreprocessMS       float64           `json:"preprocessing_ms"`
	InferenceMS        float64           `json:"inference_ms"`
	PostprocessMS      float64           `json:"postprocessing_ms"`
	AnnotatedImagePath string            `json:"annotated_image_path,omitempty"`
	CapturedAt         string            `json:"captured_at"`
	CreatedAt          string            `json:"created_at"`
}

// SessionResponse wraps one session.
type SessionResponse struct {
	Session SessionSnapshot `json:"session"`
}

// SessionListResponse carries a page of sessions plus the digest of the
// whole scope, so a client can page freely and still compare one digest.
type SessionListResponse struct {
	Sessions []SessionSnapshot `json:"sessions"`
	Checksum string            `json:"checksum"`
	// SyncIntervalSeconds advertises the server's preferred poll cadence.
	SyncIntervalSeconds int `json:"sync_interval_seconds"`
}

// ScanListResponse carries a page of one session's scans plus the scope
// digest.
type ScanListResponse struct {
	Scans    []ScanRecord `json:"scans"`
	Checksum string       `json:"checksum"`
}

// ChecksumResponse is the lightweight change-detection payload.
type ChecksumResponse struct {
	Checksum string `json:"checksum"`
}

// FrameResponse is the result of ingesting one frame: the stored scan and
// the session counters after the verdict landed.
type FrameResponse struct {
	Session SessionSnapshot `json:"session"`
	Scan    ScanRecord      `json:"scan"`
}

// ErrorResponse is the uniform error payload. Session is present on
// conflicts so clients can resynchronize with the session's actual status.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Code    string           `json:"code"`
	Session *SessionSnapshot `json:"session,omitempty"`
}

// DaemonStatus reports daemon health for status surfaces.
type DaemonStatus struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	DatabasePath  string `json:"database_path"`
	DetectorURL   string `json:"detector_url"`
	CameraPresent *bool  `json:"camera_present,omitempty"`
	OpenSessions  int    `json:"open_sessions"`
}

// StartSessionRequest opens a session for an operator.
type StartSessionRequest struct {
	Operator string `json:"operator"`
}

// SettingsUpdateRequest carries a partial settings change. Pointers
// distinguish "leave alone" from explicit zero values.
type SettingsUpdateRequest struct {
	RefreshSeconds       *int     `json:"refresh_seconds,omitempty"`
	DefectAlertThreshold *float64 `json:"defect_alert_threshold,omitempty"`
	ShowGoodFrames       *bool    `json:"show_good_frames,omitempty"`
	SoundAlerts          *bool    `json:"sound_alerts,omitempty"`
}

// FromSession converts a storage session into its wire form.
func FromSession(session *inspection.Session) SessionSnapshot {
	if session == nil {
		return SessionSnapshot{}
	}
	snapshot := SessionSnapshot{
		ID:            session.ID,
		PublicID:      session.PublicID,
		Operator:      session.Operator,
		Status:        string(session.Status),
		TotalFrames:   session.TotalFrames,
		DefectCount:   session.DefectCount,
		GoodCount:     session.GoodCount,
		DefectRate:    session.DefectRate,
		GoodRate:      session.GoodRate,
		ThroughputFPS: session.ThroughputFPS,
		StartedAt:     session.StartedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     session.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if session.EndedAt != nil {
		snapshot.EndedAt = session.EndedAt.UTC().Format(time.RFC3339Nano)
		if duration := session.EndedAt.Sub(session.StartedAt).Seconds(); duration > 0 {
			snapshot.DurationSeconds = math.Round(duration*1000) / 1000
		}
	}
	return snapshot
}

// FromSessions converts a slice of storage sessions.
func FromSessions(sessions []*inspection.Session) []SessionSnapshot {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]SessionSnapshot, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, FromSession(session))
	}
	return out
}

// FromScan converts a storage scan into its wire form.
func FromScan(record *inspection.Scan) ScanRecord {
	if record == nil {
		return ScanRecord{}
	}
	out := ScanRecord{
		ID:                 record.ID,
		SessionID:          record.SessionID,
		FrameIndex:         record.FrameIndex,
		Decision:           record.Decision,
		AnomalyScore:       record.AnomalyScore,
		ConfidenceLevel:    record.ConfidenceLevel,
		Threshold:          record.Threshold,
		PreprocessMS:       record.PreprocessMS,
		InferenceMS:        record.InferenceMS,
		PostprocessMS:      record.PostprocessMS,
		AnnotatedImagePath: record.AnnotatedImagePath,
		CapturedAt:         record.CapturedAt.UTC().Format(time.RFC3339Nano),
		CreatedAt:          record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if record.DefectsJSON != "" {
		// Stored verbatim as the detector sent it; a row written by any
		// released version decodes cleanly.
		_ = json.Unmarshal([]byte(record.DefectsJSON), &out.Defects)
	}
	return out
}

// FromScans converts a slice of storage scans.
func FromScans(records []*inspection.Scan) []ScanRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]ScanRecord, 0, len(records))
	for _, record := range records {
		out = append(out, FromScan(record))
	}
	return out
}
