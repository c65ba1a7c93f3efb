package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/authz"
	"github.com/nomadways/apinomad/internal/email"
	"github.com/nomadways/apinomad/internal/media"
	"github.com/nomadways/apinomad/internal/model"
	"github.com/nomadways/apinomad/internal/realtime"
	"github.com/nomadways/apinomad/internal/store"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to temp storage.
const maxUploadMemory = 32 << 20

var allowedVideoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
}

type VideoHandler struct {
	videos      *store.VideoStore
	genres      *store.GenreStore
	accounts    *store.AccountStore
	authorizer  *authz.Authorizer
	storage     *media.Storage
	prober      media.Prober
	emailClient *email.Client
	hub         *realtime.Hub
	minWidth    int64
	minHeight   int64
	logger      *slog.Logger
}

func NewVideoHandler(
	videos *store.VideoStore,
	genres *store.GenreStore,
	accounts *store.AccountStore,
	authorizer *authz.Authorizer,
	storage *media.Storage,
	prober media.Prober,
	emailClient *email.Client,
	hub *realtime.Hub,
	minWidth, minHeight int64,
	logger *slog.Logger,
) *VideoHandler {
	return &VideoHandler{
		videos:      videos,
		genres:      genres,
		accounts:    accounts,
		authorizer:  authorizer,
		storage:     storage,
		prober:      prober,
		emailClient: emailClient,
		hub:         hub,
		minWidth:    minWidth,
		minHeight:   minHeight,
		logger:      logger,
	}
}

// Upload receives a multipart video, stores it under the date bucket, probes
// its stream properties, and creates the row. The video starts unpublished
// until a moderator activates it.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapAddVideo) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{"file": {"No file was submitted."}})
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if !allowedVideoExtensions[ext] {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"file": {"Unsupported file type. Only mp4 and webm are accepted."},
		})
		return
	}

	agreed := r.FormValue("is_agreed_terms_use") == "true"
	if !agreed {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"is_agreed_terms_use": {"You must agree to the terms of use."},
		})
		return
	}

	relPath, size, err := h.storage.SaveVideo(file, header.Filename, time.Now().UTC())
	if err != nil {
		h.logger.Error("save upload", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	meta, err := h.prober.Probe(r.Context(), h.storage.AbsPath(relPath))
	if err != nil {
		h.logger.Warn("probe upload", "error", err, "path", relPath)
		h.storage.Remove(relPath)
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"file": {"The file could not be read as a video."},
		})
		return
	}
	if !meta.MeetsMinimum(h.minWidth, h.minHeight) {
		h.storage.Remove(relPath)
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"file": {fmt.Sprintf("Video resolution is too low. Minimum is %dx%d.", h.minWidth, h.minHeight)},
		})
		return
	}

	video, err := h.videos.Create(
		ac.AccountID, relPath,
		meta.Width, meta.Height, size, meta.Duration,
		r.FormValue("title"), r.FormValue("description"), agreed,
	)
	if err != nil {
		h.logger.Error("create video", "error", err)
		h.storage.Remove(relPath)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityVideo, realtime.ActionCreated, video.ID, nil))
	writeJSON(w, http.StatusCreated, video)
}

// List returns videos. Without filters, soft-deleted videos are hidden.
// Query parameters: params=true restricts to the caller's own non-deleted
// videos, is_deleted=true shows only soft-deleted ones, is_actived=true
// only published ones.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	q := r.URL.Query()
	filter := store.VideoFilter{}
	switch {
	case q.Get("params") == "true":
		filter.OwnerID = ac.AccountID
		filter.ExcludeDeleted = true
	case q.Get("is_deleted") == "true":
		filter.OnlyDeleted = true
	case q.Get("is_actived") == "true":
		filter.OnlyActive = true
	default:
		filter.ExcludeDeleted = true
	}

	videos, err := h.videos.List(filter)
	if err != nil {
		h.logger.Error("list videos", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	video, err := h.videos.GetByID(id)
	if err != nil {
		h.logger.Error("get video", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if video == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

type patchVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Genres      []int64 `json:"genres"`
}

// Patch updates video metadata. The file and owner are fixed at upload;
// any such fields in the body are ignored by the decode shape.
func (h *VideoHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapChangeVideo) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	video, err := h.videos.GetByID(id)
	if err != nil {
		h.logger.Error("get video", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if video == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var req patchVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	title := video.Title
	if req.Title != nil {
		title = *req.Title
	}
	description := video.Description
	if req.Description != nil {
		description = *req.Description
	}

	updated, err := h.videos.UpdateMeta(id, title, description)
	if err != nil {
		h.logger.Error("update video", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	if req.Genres != nil {
		if updated, err = h.replaceGenres(updated, req.Genres); err != nil {
			if ve, ok := err.(validationErr); ok {
				errorFields(w, http.StatusBadRequest, map[string][]string{"genres": {string(ve)}})
				return
			}
			h.logger.Error("update video genres", "error", err)
			errorDetail(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityVideo, realtime.ActionUpdated, id, nil))
	writeJSON(w, http.StatusOK, updated)
}

type validationErr string

func (e validationErr) Error() string { return string(e) }

// replaceGenres swaps the video's genre set for the given ids.
func (h *VideoHandler) replaceGenres(video *model.Video, genreIDs []int64) (*model.Video, error) {
	for _, gid := range genreIDs {
		genre, err := h.genres.GetByID(gid)
		if err != nil {
			return nil, err
		}
		if genre == nil {
			return nil, validationErr(fmt.Sprintf("Genre %d does not exist.", gid))
		}
	}
	for _, g := range video.Genres {
		if err := h.videos.RemoveGenre(video.ID, g.ID); err != nil {
			return nil, err
		}
	}
	for _, gid := range genreIDs {
		if err := h.videos.AddGenre(video.ID, gid); err != nil {
			return nil, err
		}
	}
	return h.videos.GetByID(video.ID)
}

// Delete removes the row and the backing file, pruning any directories the
// file's removal leaves empty.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	video, err := h.videos.GetByID(id)
	if err != nil {
		h.logger.Error("get video", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if video == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if video.OwnerID != ac.AccountID && !ac.IsSuperuser {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	if err := h.videos.Delete(id); err != nil {
		h.logger.Error("delete video", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.storage.Remove(video.FilePath); err != nil {
		h.logger.Warn("remove video file", "error", err, "path", video.FilePath)
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityVideo, realtime.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type activateVideoRequest struct {
	Mode bool `json:"mode"`
}

// Activate is the moderation switch: mode=true publishes the video, mode=false
// unpublishes it. The owner is emailed the new status; a delivery failure does
// not undo the change, the response then carries the updated video alongside
// an advisory detail.
func (h *VideoHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapModerateVideo) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	video, err := h.videos.GetByID(id)
	if err != nil {
		h.logger.Error("get video", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if video == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var req activateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	stamp := model.SentinelPast
	if req.Mode {
		stamp = time.Now().UTC()
	}
	updated, err := h.videos.SetActivated(id, stamp)
	if err != nil {
		h.logger.Error("set video activation", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityVideo, realtime.ActionActivated, id, map[string]any{"active": req.Mode}))

	owner, err := h.accounts.GetByID(updated.OwnerID)
	if err != nil || owner == nil {
		h.logger.Error("load video owner", "error", err, "video", id)
		writeJSON(w, http.StatusOK, updated)
		return
	}
	if err := h.emailClient.SendVideoStatus(owner.Email, updated.Title, req.Mode); err != nil {
		h.logger.Warn("send video status email", "error", err, "video", id)
		writeJSON(w, http.StatusOK, map[string]any{
			"detail": "The video status was changed but the notification email could not be sent.",
			"video":  updated,
		})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Genres lists the selectable genre reference data.
func (h *VideoHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genres.List()
	if err != nil {
		h.logger.Error("list genres", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, genres)
}
