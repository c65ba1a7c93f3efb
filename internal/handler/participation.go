package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/model"
	"github.com/nomadways/apinomad/internal/realtime"
	"github.com/nomadways/apinomad/internal/store"
)

type ParticipationHandler struct {
	participations *store.ParticipationStore
	events         *store.EventStore
	hub            *realtime.Hub
	logger         *slog.Logger
}

func NewParticipationHandler(
	participations *store.ParticipationStore,
	events *store.EventStore,
	hub *realtime.Hub,
	logger *slog.Logger,
) *ParticipationHandler {
	return &ParticipationHandler{
		participations: participations,
		events:         events,
		hub:            hub,
		logger:         logger,
	}
}

type createParticipationRequest struct {
	Event int64 `json:"event"`
}

// Create signs the authenticated caller up for an event. The participant is
// always the caller; nobody registers somebody else.
func (h *ParticipationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req createParticipationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	event, err := h.events.GetByID(req.Event)
	if err != nil {
		h.logger.Error("get event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if event == nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{"event": {"Event does not exist."}})
		return
	}

	p, err := h.participations.Create(event.ID, ac.AccountID)
	if errors.Is(err, store.ErrDuplicateParticipation) {
		errorNonField(w, http.StatusBadRequest, "You already have a participation for this event.")
		return
	}
	if err != nil {
		h.logger.Error("create participation", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityParticipation, realtime.ActionCreated, p.ID, map[string]any{"event_id": event.ID}))
	writeJSON(w, http.StatusCreated, p)
}

// List returns the caller's participations, or every participation for a
// superuser.
func (h *ParticipationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var (
		participations []model.Participation
		err            error
	)
	if ac.IsSuperuser {
		participations, err = h.participations.List()
	} else {
		participations, err = h.participations.ListByParticipant(ac.AccountID)
	}
	if err != nil {
		h.logger.Error("list participations", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, participations)
}

func (h *ParticipationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.participations.GetByID(id)
	if err != nil {
		h.logger.Error("get participation", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if p.ParticipantID != ac.AccountID && !ac.IsSuperuser {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete withdraws a participation. Once the event has started nobody may
// withdraw, superusers included.
func (h *ParticipationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.participations.GetByID(id)
	if err != nil {
		h.logger.Error("get participation", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	event, err := h.events.GetByID(p.EventID)
	if err != nil {
		h.logger.Error("get event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if event != nil && event.StartedAt(time.Now().UTC()) {
		writeJSON(w, http.StatusForbidden, map[string][]string{
			"non_field_errors": {"You can't delete a participation if the associated event is already started."},
		})
		return
	}

	if p.ParticipantID != ac.AccountID && !ac.IsSuperuser {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	if err := h.participations.Delete(id); err != nil {
		h.logger.Error("delete participation", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityParticipation, realtime.ActionDeleted, id, map[string]any{"event_id": p.EventID}))
	w.WriteHeader(http.StatusNoContent)
}
