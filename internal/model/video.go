package model

import "time"

// SentinelPast is the default value of the deletion and activation markers.
// A marker earlier than the creation timestamp means "not set".
var SentinelPast = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

type Video struct {
	ID               int64     `json:"id"`
	OwnerID          int64     `json:"owner"`
	FilePath         string    `json:"file"`
	Duration         float64   `json:"duration"`
	Width            int64     `json:"width"`
	Height           int64     `json:"height"`
	Size             int64     `json:"size"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	IsAgreedTermsUse bool      `json:"is_agreed_terms_use"`
	CreatedAt        time.Time `json:"is_created"`
	DeletedAt        time.Time `json:"is_deleted"`
	ActivatedAt      time.Time `json:"is_actived"`
	Genres           []Genre   `json:"genres,omitempty"`
}

// IsDeleted reports whether the video has been soft-deleted: the deletion
// marker was stamped at or after creation.
func (v *Video) IsDeleted() bool {
	return !v.DeletedAt.Before(v.CreatedAt)
}

// IsActive reports whether the video is visible: activated at or after
// creation and not soft-deleted.
func (v *Video) IsActive() bool {
	if v.IsDeleted() {
		return false
	}
	return !v.ActivatedAt.Before(v.CreatedAt)
}

type Genre struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}
