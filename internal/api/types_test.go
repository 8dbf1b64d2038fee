package api

import (
	"testing"
	"time"

	"facet/internal/inspection"
)

func TestFromSession(t *testing.T) {
	ended := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	session := &inspection.Session{
		ID:            4,
		PublicID:      "abc",
		Operator:      "alice",
		Status:        inspection.StatusCompleted,
		TotalFrames:   10,
		DefectCount:   3,
		GoodCount:     7,
		DefectRate:    30.00,
		GoodRate:      70.00,
		ThroughputFPS: 1.234,
		StartedAt:     ended.Add(-time.Hour),
		EndedAt:       &ended,
		UpdatedAt:     ended,
	}

	snapshot := FromSession(session)
	if snapshot.Status != "completed" || snapshot.TotalFrames != 10 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	if snapshot.EndedAt != "2026-03-01T12:30:00Z" {
		t.Fatalf("ended at = %q", snapshot.EndedAt)
	}
	if snapshot.DurationSeconds != 3600 {
		t.Fatalf("duration = %v, want 3600", snapshot.DurationSeconds)
	}
	if snapshot.Timestamp == "" {
		t.Fatal("snapshot should carry its own timestamp")
	}
	if _, err := time.Parse(time.RFC3339Nano, snapshot.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339Nano: %v", err)
	}
}

func TestFromSessionOpenOmitsDuration(t *testing.T) {
	session := &inspection.Session{
		ID:        2,
		Status:    inspection.StatusActive,
		StartedAt: time.Now().Add(-time.Minute),
		UpdatedAt: time.Now(),
	}
	snapshot := FromSession(session)
	if snapshot.DurationSeconds != 0 || snapshot.EndedAt != "" {
		t.Fatalf("open session should have no duration, got %+v", snapshot)
	}
}

func TestFromSessionNil(t *testing.T) {
	if got := FromSession(nil); got.ID != 0 {
		t.Fatalf("expected zero snapshot, got %+v", got)
	}
	if got := FromSessions(nil); got != nil {
		t.Fatalf("expected nil slice, got %v", got)
	}
}

func TestFromScanOmitsEmptyOptionalFields(t *testing.T) {
	record := &inspection.Scan{
		ID:         1,
		SessionID:  2,
		FrameIndex: 3,
		Decision:   "good",
		CapturedAt: time.Now(),
		CreatedAt:  time.Now(),
	}
	wire := FromScan(record)
	if wire.Defects != nil || wire.AnnotatedImagePath != "" {
		t.Fatalf("expected empty optional fields, got %+v", wire)
	}
	if wire.FrameIndex != 3 {
		t.Fatalf("frame index = %d", wire.FrameIndex)
	}
}

func TestFromScanDecodesDefects(t *testing.T) {
	record := &inspection.Scan{
		ID:          7,
		SessionID:   2,
		FrameIndex:  4,
		Decision:    "defect",
		DefectsJSON: `[{"label":"scratch","confidence":0.91,"severity":"major","area_percent":1.5,"bounding_box":{"x":10,"y":20,"width":30,"height":40}}]`,
		CapturedAt:  time.Now(),
		CreatedAt:   time.Now(),
	}
	wire := FromScan(record)
	if len(wire.Defects) != 1 {
		t.Fatalf("defects = %+v", wire.Defects)
	}
	defect := wire.Defects[0]
	if defect.Label != "scratch" || defect.Severity != "major" || defect.Box.Width != 30 {
		t.Fatalf("defect = %+v", defect)
	}
}
