package media

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage keeps uploaded files under a root directory, bucketed by upload
// date: uploads/videos/YYYY/MM/DD/<name>_<suffix>.<ext>. Paths handed back
// to callers are relative to the root so the database stays portable.
type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

// Root returns the storage root directory.
func (s *Storage) Root() string {
	return s.root
}

// AbsPath resolves a stored relative path to a filesystem path.
func (s *Storage) AbsPath(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// SaveVideo writes the upload to the current date bucket under a collision-free
// name derived from the original filename. It returns the relative path and
// the number of bytes written.
func (s *Storage) SaveVideo(src io.Reader, originalName string, now time.Time) (string, int64, error) {
	relPath := s.videoPath(originalName, now)
	absPath := s.AbsPath(relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(absPath)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	return relPath, size, nil
}

// Remove deletes a stored file and prunes any directories the deletion left
// empty, up to but not including the root. A missing file is not an error.
func (s *Storage) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	absPath := s.AbsPath(relPath)
	if err := os.Remove(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove %s: %w", relPath, err)
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil
	}
	dir := filepath.Dir(absPath)
	for {
		abs, err := filepath.Abs(dir)
		if err != nil || abs == root || !strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return nil
		}
		// os.Remove refuses non-empty directories, which is exactly
		// the stopping condition.
		if err := os.Remove(dir); err != nil {
			return nil
		}
		dir = filepath.Dir(dir)
	}
}

func (s *Storage) videoPath(originalName string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" || name == "." {
		name = "video"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return path.Join(
		"uploads", "videos",
		now.UTC().Format("2006"), now.UTC().Format("01"), now.UTC().Format("02"),
		fmt.Sprintf("%s_%s%s", name, suffix, ext),
	)
}
