package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/authz"
	"github.com/nomadways/apinomad/internal/model"
	"github.com/nomadways/apinomad/internal/realtime"
	"github.com/nomadways/apinomad/internal/store"
)

type EventHandler struct {
	events     *store.EventStore
	authorizer *authz.Authorizer
	hub        *realtime.Hub
	logger     *slog.Logger
}

func NewEventHandler(events *store.EventStore, authorizer *authz.Authorizer, hub *realtime.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, authorizer: authorizer, hub: hub, logger: logger}
}

// eventResponse augments the stored row with the time-derived flags clients
// rely on.
type eventResponse struct {
	model.Event
	IsActive        bool    `json:"is_active"`
	IsStarted       bool    `json:"is_started"`
	IsExpired       bool    `json:"is_expired"`
	DurationSeconds float64 `json:"duration"`
}

func newEventResponse(e model.Event, now time.Time) eventResponse {
	return eventResponse{
		Event:           e,
		IsActive:        e.ActiveAt(now),
		IsStarted:       e.StartedAt(now),
		IsExpired:       e.ExpiredAt(now),
		DurationSeconds: e.Duration().Seconds(),
	}
}

type eventRequest struct {
	Address     string `json:"address"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateStart   string `json:"date_start"`
	DateEnd     string `json:"date_end"`
}

func (h *EventHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*eventRequest, time.Time, time.Time, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return nil, time.Time{}, time.Time{}, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		errorFields(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return nil, time.Time{}, time.Time{}, false
	}
	if strings.TrimSpace(req.Description) == "" {
		errorFields(w, http.StatusBadRequest, map[string][]string{"description": {"This field may not be blank."}})
		return nil, time.Time{}, time.Time{}, false
	}

	dateStart, err := time.Parse(time.RFC3339, req.DateStart)
	if err != nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{"date_start": {"Datetime must be RFC3339 format."}})
		return nil, time.Time{}, time.Time{}, false
	}
	dateEnd, err := time.Parse(time.RFC3339, req.DateEnd)
	if err != nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{"date_end": {"Datetime must be RFC3339 format."}})
		return nil, time.Time{}, time.Time{}, false
	}
	if dateEnd.Before(dateStart) {
		errorNonField(w, http.StatusBadRequest, "The start date must be before the end date.")
		return nil, time.Time{}, time.Time{}, false
	}
	return &req, dateStart, dateEnd, true
}

// Create registers a new event with the caller as guide.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapAddEvent) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	req, dateStart, dateEnd, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	event, err := h.events.Create(ac.AccountID, req.Address, req.Title, req.Description, dateStart, dateEnd)
	if err != nil {
		h.logger.Error("create event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityEvent, realtime.ActionCreated, event.ID, nil))
	writeJSON(w, http.StatusCreated, newEventResponse(*event, time.Now().UTC()))
}

// List returns events ordered by start date. Callers without the event
// management capability only see events that have not ended yet.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	onlyActive := !h.authorizer.Authorize(ac, authz.CapChangeEvent)

	events, err := h.events.List(onlyActive)
	if err != nil {
		h.logger.Error("list events", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now().UTC()
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if event == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(*event, time.Now().UTC()))
}

type patchEventRequest struct {
	Address     *string `json:"address"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DateStart   *string `json:"date_start"`
	DateEnd     *string `json:"date_end"`
}

func (h *EventHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapChangeEvent) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if event == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var req patchEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	address := event.Address
	if req.Address != nil {
		address = *req.Address
	}
	title := event.Title
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
		if title == "" {
			errorFields(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
			return
		}
	}
	description := event.Description
	if req.Description != nil {
		description = *req.Description
		if strings.TrimSpace(description) == "" {
			errorFields(w, http.StatusBadRequest, map[string][]string{"description": {"This field may not be blank."}})
			return
		}
	}
	dateStart := event.DateStart
	if req.DateStart != nil {
		dateStart, err = time.Parse(time.RFC3339, *req.DateStart)
		if err != nil {
			errorFields(w, http.StatusBadRequest, map[string][]string{"date_start": {"Datetime must be RFC3339 format."}})
			return
		}
	}
	dateEnd := event.DateEnd
	if req.DateEnd != nil {
		dateEnd, err = time.Parse(time.RFC3339, *req.DateEnd)
		if err != nil {
			errorFields(w, http.StatusBadRequest, map[string][]string{"date_end": {"Datetime must be RFC3339 format."}})
			return
		}
	}
	if dateEnd.Before(dateStart) {
		errorNonField(w, http.StatusBadRequest, "The start date must be before the end date.")
		return
	}

	updated, err := h.events.Update(id, address, title, description, dateStart, dateEnd)
	if err != nil {
		h.logger.Error("update event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityEvent, realtime.ActionUpdated, id, nil))
	writeJSON(w, http.StatusOK, newEventResponse(*updated, time.Now().UTC()))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapDeleteEvent) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if event == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if err := h.events.Delete(id); err != nil {
		h.logger.Error("delete event", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(realtime.NewMessage(realtime.EntityEvent, realtime.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}
