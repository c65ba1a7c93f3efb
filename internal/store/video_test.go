package store

import (
	"testing"
	"time"

	"github.com/nomadways/apinomad/internal/model"
)

func setupVideoStore(t *testing.T) (*VideoStore, *GenreStore, *model.Account) {
	t.Helper()
	db := openTestDB(t)
	accounts := NewAccountStore(db)
	owner, err := accounts.Create("owner@example.com", "hash", "", "", true)
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return NewVideoStore(db), NewGenreStore(db), owner
}

func TestVideoCreateDefaults(t *testing.T) {
	videos, _, owner := setupVideoStore(t)

	v, err := videos.Create(owner.ID, "uploads/videos/2026/08/30/clip_ab12.mp4", 1920, 1080, 4096, 12.5, "Clip", "a clip", true)
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	if v.IsDeleted() {
		t.Error("new video should not be deleted")
	}
	if v.IsActive() {
		t.Error("new video should not be active before moderation")
	}
	if v.Width != 1920 || v.Height != 1080 || v.Size != 4096 {
		t.Errorf("video = %+v", v)
	}
	if !v.IsAgreedTermsUse {
		t.Error("agreed terms flag lost")
	}
}

func TestVideoActivateAndSoftDelete(t *testing.T) {
	videos, _, owner := setupVideoStore(t)

	v, _ := videos.Create(owner.ID, "a.mp4", 1280, 720, 1, 1, "", "", true)

	v, err := videos.SetActivated(v.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !v.IsActive() {
		t.Error("video should be active after activation")
	}

	// Deactivation resets the marker to the sentinel.
	v, err = videos.SetActivated(v.ID, model.SentinelPast)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if v.IsActive() {
		t.Error("video should be inactive after reset")
	}

	v, err = videos.SetDeleted(v.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if !v.IsDeleted() {
		t.Error("video should be deleted")
	}

	// A deleted video is never active, even with a fresh activation stamp.
	v, _ = videos.SetActivated(v.ID, time.Now().UTC())
	if v.IsActive() {
		t.Error("deleted video must not be active")
	}
}

func TestVideoListFilters(t *testing.T) {
	videos, _, owner := setupVideoStore(t)

	pending, _ := videos.Create(owner.ID, "pending.mp4", 1280, 720, 1, 1, "", "", true)
	active, _ := videos.Create(owner.ID, "active.mp4", 1280, 720, 1, 1, "", "", true)
	deleted, _ := videos.Create(owner.ID, "deleted.mp4", 1280, 720, 1, 1, "", "", true)

	if _, err := videos.SetActivated(active.ID, time.Now().UTC()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := videos.SetDeleted(deleted.ID, time.Now().UTC()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	onlyActive, err := videos.List(VideoFilter{OnlyActive: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != active.ID {
		t.Errorf("onlyActive = %+v", onlyActive)
	}

	onlyDeleted, err := videos.List(VideoFilter{OnlyDeleted: true})
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(onlyDeleted) != 1 || onlyDeleted[0].ID != deleted.ID {
		t.Errorf("onlyDeleted = %+v", onlyDeleted)
	}

	visible, err := videos.List(VideoFilter{ExcludeDeleted: true})
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if len(visible) != 2 {
		t.Errorf("visible = %d, want 2 (pending %d + active %d)", len(visible), pending.ID, active.ID)
	}
}

func TestVideoListByOwner(t *testing.T) {
	videos, _, owner := setupVideoStore(t)

	videos.Create(owner.ID, "a.mp4", 1280, 720, 1, 1, "", "", true)
	videos.Create(owner.ID, "b.mp4", 1280, 720, 1, 1, "", "", true)

	mine, err := videos.List(VideoFilter{OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("mine = %d, want 2", len(mine))
	}
	other, _ := videos.List(VideoFilter{OwnerID: owner.ID + 100})
	if len(other) != 0 {
		t.Errorf("other = %d, want 0", len(other))
	}
}

func TestVideoGenres(t *testing.T) {
	videos, genres, owner := setupVideoStore(t)

	v, _ := videos.Create(owner.ID, "a.mp4", 1280, 720, 1, 1, "", "", true)

	all, err := genres.List()
	if err != nil {
		t.Fatalf("list genres: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected seeded genres")
	}

	if err := videos.AddGenre(v.ID, all[0].ID); err != nil {
		t.Fatalf("add genre: %v", err)
	}
	// Duplicate links are ignored.
	if err := videos.AddGenre(v.ID, all[0].ID); err != nil {
		t.Fatalf("add genre twice: %v", err)
	}

	v, _ = videos.GetByID(v.ID)
	if len(v.Genres) != 1 || v.Genres[0].ID != all[0].ID {
		t.Errorf("genres = %+v", v.Genres)
	}

	if err := videos.RemoveGenre(v.ID, all[0].ID); err != nil {
		t.Fatalf("remove genre: %v", err)
	}
	v, _ = videos.GetByID(v.ID)
	if len(v.Genres) != 0 {
		t.Errorf("genres after remove = %+v", v.Genres)
	}
}

func TestVideoUpdateMeta(t *testing.T) {
	videos, _, owner := setupVideoStore(t)

	v, _ := videos.Create(owner.ID, "a.mp4", 1280, 720, 1, 1, "Old", "old", true)

	v, err := videos.UpdateMeta(v.ID, "New", "new description")
	if err != nil {
		t.Fatalf("update meta: %v", err)
	}
	if v.Title != "New" || v.Description != "new description" {
		t.Errorf("video = %+v", v)
	}
	if v.FilePath != "a.mp4" {
		t.Error("file path must not change on meta update")
	}
}

func TestVideoHardDelete(t *testing.T) {
	videos, _, owner := setupVideoStore(t)

	v, _ := videos.Create(owner.ID, "a.mp4", 1280, 720, 1, 1, "", "", true)
	if err := videos.Delete(v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := videos.GetByID(v.ID)
	if got != nil {
		t.Error("deleted video should be gone")
	}
}
