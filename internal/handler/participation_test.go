package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/model"
)

func TestParticipationCreateAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	guide, _ := env.accounts.Create("guide@example.com", "hash", "", "", true)
	alice, _ := env.accounts.Create("alice@example.com", "hash", "", "", true)

	now := time.Now().UTC()
	event, _ := env.events.Create(guide.ID, "", "Hike", "a hike", now.Add(24*time.Hour), now.Add(30*time.Hour))

	h := env.participationHandler()
	ac := auth.AuthContext{AccountID: alice.ID}
	body := `{"event": ` + strconv.FormatInt(event.ID, 10) + `}`

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest("POST", "/activity/participations", body, ac))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var p model.Participation
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ParticipantID != alice.ID {
		t.Errorf("participant = %d, want caller %d", p.ParticipantID, alice.ID)
	}

	// Same pair again: uniqueness violation surfaces as 400.
	rec = httptest.NewRecorder()
	h.Create(rec, authedRequest("POST", "/activity/participations", body, ac))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "non_field_errors") {
		t.Errorf("duplicate body = %s", rec.Body.String())
	}
}

func TestParticipationCreateUnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.accounts.Create("alice@example.com", "hash", "", "", true)

	h := env.participationHandler()
	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest("POST", "/activity/participations", `{"event": 999}`, auth.AuthContext{AccountID: alice.ID}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParticipationListScopedToCaller(t *testing.T) {
	env := newTestEnv(t)
	guide, _ := env.accounts.Create("guide@example.com", "hash", "", "", true)
	alice, _ := env.accounts.Create("alice@example.com", "hash", "", "", true)
	bob, _ := env.accounts.Create("bob@example.com", "hash", "", "", true)

	now := time.Now().UTC()
	event, _ := env.events.Create(guide.ID, "", "Hike", "a hike", now.Add(24*time.Hour), now.Add(30*time.Hour))
	env.participations.Create(event.ID, alice.ID)
	env.participations.Create(event.ID, bob.ID)

	h := env.participationHandler()

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest("GET", "/activity/participations", "", auth.AuthContext{AccountID: alice.ID}))
	var mine []model.Participation
	json.Unmarshal(rec.Body.Bytes(), &mine)
	if len(mine) != 1 || mine[0].ParticipantID != alice.ID {
		t.Errorf("alice sees %+v", mine)
	}

	rec = httptest.NewRecorder()
	h.List(rec, authedRequest("GET", "/activity/participations", "", auth.AuthContext{AccountID: guide.ID, IsSuperuser: true}))
	var all []model.Participation
	json.Unmarshal(rec.Body.Bytes(), &all)
	if len(all) != 2 {
		t.Errorf("superuser sees %d, want 2", len(all))
	}
}

func TestParticipationDeleteBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	guide, _ := env.accounts.Create("guide@example.com", "hash", "", "", true)
	alice, _ := env.accounts.Create("alice@example.com", "hash", "", "", true)

	now := time.Now().UTC()
	event, _ := env.events.Create(guide.ID, "", "Hike", "a hike", now.Add(24*time.Hour), now.Add(30*time.Hour))
	p, _ := env.participations.Create(event.ID, alice.ID)

	h := env.participationHandler()
	id := strconv.FormatInt(p.ID, 10)

	// Someone else's participation is off limits.
	req := authedRequest("DELETE", "/activity/participations/"+id, "", auth.AuthContext{AccountID: guide.ID})
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: status = %d", rec.Code)
	}

	req = authedRequest("DELETE", "/activity/participations/"+id, "", auth.AuthContext{AccountID: alice.ID})
	req.SetPathValue("id", id)
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("own delete: status = %d", rec.Code)
	}
}

func TestParticipationDeleteAfterStartForbidden(t *testing.T) {
	env := newTestEnv(t)
	guide, _ := env.accounts.Create("guide@example.com", "hash", "", "", true)
	alice, _ := env.accounts.Create("alice@example.com", "hash", "", "", true)

	now := time.Now().UTC()
	event, _ := env.events.Create(guide.ID, "", "Hike", "running", now.Add(-time.Hour), now.Add(time.Hour))
	p, _ := env.participations.Create(event.ID, alice.ID)

	h := env.participationHandler()
	id := strconv.FormatInt(p.ID, 10)

	// Not the participant, and not even a superuser, may withdraw once the
	// event has started.
	for _, ac := range []auth.AuthContext{
		{AccountID: alice.ID},
		{AccountID: guide.ID, IsSuperuser: true},
	} {
		req := authedRequest("DELETE", "/activity/participations/"+id, "", ac)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.Delete(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("delete after start: status = %d, want 403", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already started") {
			t.Errorf("body = %s", rec.Body.String())
		}
	}

	if got, _ := env.participations.GetByID(p.ID); got == nil {
		t.Error("participation should survive")
	}
}
