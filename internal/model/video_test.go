package model

import (
	"testing"
	"time"
)

func TestVideoDefaultsNeitherActiveNorDeleted(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := Video{
		CreatedAt:   created,
		DeletedAt:   SentinelPast,
		ActivatedAt: SentinelPast,
	}

	if v.IsDeleted() {
		t.Error("sentinel deleted_at should not mark the video deleted")
	}
	if v.IsActive() {
		t.Error("sentinel activated_at should not mark the video active")
	}
}

func TestVideoActivated(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := Video{
		CreatedAt:   created,
		DeletedAt:   SentinelPast,
		ActivatedAt: created.Add(time.Hour),
	}

	if !v.IsActive() {
		t.Error("video activated after creation should be active")
	}

	// Activation at exactly the creation instant still counts.
	v.ActivatedAt = created
	if !v.IsActive() {
		t.Error("video activated at creation should be active")
	}
}

func TestVideoSoftDeleteWinsOverActivation(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := Video{
		CreatedAt:   created,
		DeletedAt:   created.Add(2 * time.Hour),
		ActivatedAt: created.Add(time.Hour),
	}

	if !v.IsDeleted() {
		t.Error("video with deletion stamp after creation should be deleted")
	}
	if v.IsActive() {
		t.Error("soft-deleted video should never be active")
	}
}
