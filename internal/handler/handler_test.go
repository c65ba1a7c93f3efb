package handler

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/nomadways/apinomad/internal/authz"
	"github.com/nomadways/apinomad/internal/database"
	"github.com/nomadways/apinomad/internal/email"
	"github.com/nomadways/apinomad/internal/media"
	"github.com/nomadways/apinomad/internal/realtime"
	"github.com/nomadways/apinomad/internal/store"
)

// testEnv wires handlers against an in-memory database the way the server
// package does in production.
type testEnv struct {
	db             *sql.DB
	accounts       *store.AccountStore
	capabilities   *store.CapabilityStore
	tokens         *store.ActionTokenStore
	sessions       *store.SessionStore
	events         *store.EventStore
	participations *store.ParticipationStore
	videos         *store.VideoStore
	genres         *store.GenreStore
	authorizer     *authz.Authorizer
	hub            *realtime.Hub
	logger         *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}

	capabilities := store.NewCapabilityStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		db:             db,
		accounts:       store.NewAccountStore(db),
		capabilities:   capabilities,
		tokens:         store.NewActionTokenStore(db),
		sessions:       store.NewSessionStore(db),
		events:         store.NewEventStore(db),
		participations: store.NewParticipationStore(db),
		videos:         store.NewVideoStore(db),
		genres:         store.NewGenreStore(db),
		authorizer:     authz.New(capabilities),
		hub:            realtime.NewHub(logger),
		logger:         logger,
	}
}

// errorTransport fails every request, standing in for an unreachable email
// provider.
type errorTransport struct{}

func (errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("transport down")
}

func failingEmailClient() *email.Client {
	return email.NewClient("token", "noreply@example.com",
		"https://app.test/activate/{{token}}", "https://app.test/reset/{{token}}",
		email.WithHTTPClient(&http.Client{Transport: errorTransport{}}))
}

func (e *testEnv) authHandler(renewOnUse bool) *AuthHandler {
	return NewAuthHandler(e.accounts, e.sessions, 24*time.Hour, renewOnUse, e.logger)
}

func (e *testEnv) accountHandler(emailEnabled, autoActivate bool, client *email.Client) *AccountHandler {
	if client == nil {
		client = email.NewClient("", "noreply@example.com", "", "")
	}
	return NewAccountHandler(
		e.accounts, e.tokens, e.sessions, e.authorizer, client,
		emailEnabled, autoActivate,
		48*time.Hour, 48*time.Hour,
		e.logger,
	)
}

func (e *testEnv) eventHandler() *EventHandler {
	return NewEventHandler(e.events, e.authorizer, e.hub, e.logger)
}

func (e *testEnv) participationHandler() *ParticipationHandler {
	return NewParticipationHandler(e.participations, e.events, e.hub, e.logger)
}

func (e *testEnv) videoHandler(t *testing.T, prober media.Prober, client *email.Client) *VideoHandler {
	t.Helper()
	if client == nil {
		client = email.NewClient("", "noreply@example.com", "", "")
	}
	return NewVideoHandler(
		e.videos, e.genres, e.accounts, e.authorizer,
		media.NewStorage(t.TempDir()), prober, client, e.hub,
		1280, 720,
		e.logger,
	)
}
