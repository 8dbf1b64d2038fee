package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Document is the dashboard configuration surface. Revision increases on
// every save so polling clients can detect changes without comparing
// fields.
type Document struct {
	Revision             int64   `json:"revision"`
	RefreshSeconds       int     `json:"refresh_seconds"`
	DefectAlertThreshold float64 `json:"defect_alert_threshold"`
	ShowGoodFrames       bool    `json:"show_good_frames"`
	SoundAlerts          bool    `json:"sound_alerts"`
}

// Defaults returns the document used before any save.
func Defaults() Document {
	return Document{
		RefreshSeconds:       5,
		DefectAlertThreshold: 10.0,
		ShowGoodFrames:       true,
	}
}

// Store reads and writes the settings document. All access goes through
// one mutex; the document is small and contention is rare.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current document, or defaults when no file exists yet.
func (s *Store) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("read settings: %w", err)
	}
	doc := Defaults()
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse settings: %w", err)
	}
	return doc, nil
}

// Update applies mutate to the current document and persists the result.
// The revision bump happens here so callers never manage it.
func (s *Store) Update(mutate func(*Document)) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return Document{}, err
	}
	mutate(&doc)
	doc.Revision++
	if err := s.saveLocked(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Store) saveLocked(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("finalize settings: %w", err)
	}
	return nil
}
