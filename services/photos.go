package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskPhotoStore writes capture photos under a flat directory. Callers treat
// failures as a degraded capture, not an error.
type DiskPhotoStore struct {
	Dir string
}

func (p *DiskPhotoStore) Save(userID, leg string, photo []byte) (string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s_%s.jpg", userID, leg, uuid.New().String())
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, photo, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
