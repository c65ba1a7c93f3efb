package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveVideoPathShape(t *testing.T) {
	store := NewStorage(t.TempDir())
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	relPath, size, err := store.SaveVideo(strings.NewReader("fake video bytes"), "holiday.mp4", at)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("fake video bytes")) {
		t.Errorf("size = %d", size)
	}
	if !strings.HasPrefix(relPath, "uploads/videos/2026/08/30/holiday_") {
		t.Errorf("relPath = %q, want date bucket with original base name", relPath)
	}
	if !strings.HasSuffix(relPath, ".mp4") {
		t.Errorf("relPath = %q, want .mp4 extension preserved", relPath)
	}

	data, err := os.ReadFile(store.AbsPath(relPath))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestSaveVideoUniqueNames(t *testing.T) {
	store := NewStorage(t.TempDir())
	at := time.Now().UTC()

	p1, _, err := store.SaveVideo(strings.NewReader("a"), "clip.mp4", at)
	if err != nil {
		t.Fatalf("save 1: %v", err)
	}
	p2, _, err := store.SaveVideo(strings.NewReader("b"), "clip.mp4", at)
	if err != nil {
		t.Fatalf("save 2: %v", err)
	}
	if p1 == p2 {
		t.Errorf("same path for two uploads: %q", p1)
	}
}

func TestRemovePrunesEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	store := NewStorage(root)
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	relPath, _, err := store.SaveVideo(strings.NewReader("x"), "solo.mp4", at)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Remove(relPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(store.AbsPath(relPath)); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}
	// The whole empty date bucket is pruned.
	if _, err := os.Stat(filepath.Join(root, "uploads")); !os.IsNotExist(err) {
		t.Error("empty uploads tree should be pruned")
	}
	// But the root itself stays.
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should remain: %v", err)
	}
}

func TestRemoveKeepsNonEmptyDirectories(t *testing.T) {
	store := NewStorage(t.TempDir())
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	p1, _, _ := store.SaveVideo(strings.NewReader("a"), "a.mp4", at)
	p2, _, _ := store.SaveVideo(strings.NewReader("b"), "b.mp4", at)

	if err := store.Remove(p1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(store.AbsPath(p2)); err != nil {
		t.Errorf("sibling file should survive: %v", err)
	}
}

func TestRemoveMissingFile(t *testing.T) {
	store := NewStorage(t.TempDir())
	if err := store.Remove("uploads/videos/2026/01/02/gone.mp4"); err != nil {
		t.Errorf("remove missing: %v", err)
	}
	if err := store.Remove(""); err != nil {
		t.Errorf("remove empty path: %v", err)
	}
}

func TestMeetsMinimum(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int64
		expect bool
	}{
		{"landscape at floor", 1280, 720, true},
		{"portrait swapped", 720, 1280, true},
		{"wide enough only", 1920, 480, true},
		{"tall enough only", 640, 1080, true},
		{"both below", 640, 480, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Metadata{Width: tt.w, Height: tt.h}
			if got := m.MeetsMinimum(1280, 720); got != tt.expect {
				t.Errorf("MeetsMinimum(%dx%d) = %v, want %v", tt.w, tt.h, got, tt.expect)
			}
		})
	}
}
