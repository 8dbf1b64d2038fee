package live

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImageStore persists annotated defect frames under a root directory, one
// subdirectory per session.
type ImageStore struct {
	root string
}

// NewImageStore returns a store rooted at dir.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{root: dir}
}

// Save writes one annotated frame and returns its path. The write goes
// through a temp file and rename so readers never observe a partial image.
func (s *ImageStore) Save(sessionID, frameIndex int64, data []byte) (string, error) {
	if s == nil || s.root == "" {
		return "", fmt.Errorf("image store not configured")
	}
	dir := filepath.Join(s.root, fmt.Sprintf("session-%d", sessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}

	target := filepath.Join(dir, fmt.Sprintf("frame-%06d.jpg", frameIndex))
	tmp, err := os.CreateTemp(dir, ".frame-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("finalize image: %w", err)
	}
	return target, nil
}

// RemoveSession deletes every stored image for a session.
func (s *ImageStore) RemoveSession(sessionID int64) error {
	if s == nil || s.root == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.root, fmt.Sprintf("session-%d", sessionID)))
}
