package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nomadways/apinomad/internal/authz"
	"github.com/nomadways/apinomad/internal/config"
	"github.com/nomadways/apinomad/internal/email"
	"github.com/nomadways/apinomad/internal/handler"
	"github.com/nomadways/apinomad/internal/media"
	"github.com/nomadways/apinomad/internal/middleware"
	"github.com/nomadways/apinomad/internal/realtime"
	"github.com/nomadways/apinomad/internal/store"
)

type Server struct {
	db             *sql.DB
	cfg            config.Config
	hub            *realtime.Hub
	authH          *handler.AuthHandler
	accountH       *handler.AccountHandler
	eventH         *handler.EventHandler
	participationH *handler.ParticipationHandler
	videoH         *handler.VideoHandler
	sessionStore   *store.SessionStore
	tokenStore     *store.ActionTokenStore
	accountStore   *store.AccountStore
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg config.Config, emailClient *email.Client, prober media.Prober, logger *slog.Logger) *Server {
	hub := realtime.NewHub(logger.With("component", "realtime"))

	accountStore := store.NewAccountStore(db)
	capabilityStore := store.NewCapabilityStore(db)
	tokenStore := store.NewActionTokenStore(db)
	sessionStore := store.NewSessionStore(db)
	eventStore := store.NewEventStore(db)
	participationStore := store.NewParticipationStore(db)
	videoStore := store.NewVideoStore(db)
	genreStore := store.NewGenreStore(db)

	authorizer := authz.New(capabilityStore)
	storage := media.NewStorage(cfg.MediaRoot)

	return &Server{
		db:  db,
		cfg: cfg,
		hub: hub,
		authH: handler.NewAuthHandler(
			accountStore, sessionStore,
			cfg.SessionTTL, cfg.RenewSessionOnUse,
			logger.With("component", "auth"),
		),
		accountH: handler.NewAccountHandler(
			accountStore, tokenStore, sessionStore, authorizer, emailClient,
			cfg.EmailService, cfg.AutoActivateUser,
			cfg.ActivationTokenTTL, cfg.PasswordTokenTTL,
			logger.With("component", "account"),
		),
		eventH: handler.NewEventHandler(
			eventStore, authorizer, hub,
			logger.With("component", "event"),
		),
		participationH: handler.NewParticipationHandler(
			participationStore, eventStore, hub,
			logger.With("component", "participation"),
		),
		videoH: handler.NewVideoHandler(
			videoStore, genreStore, accountStore, authorizer,
			storage, prober, emailClient, hub,
			cfg.VideoMinWidth, cfg.VideoMinHeight,
			logger.With("component", "video"),
		),
		sessionStore: sessionStore,
		tokenStore:   tokenStore,
		accountStore: accountStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// ActionTokenStore returns the action token store for cleanup tasks.
func (s *Server) ActionTokenStore() *store.ActionTokenStore {
	return s.tokenStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /authentication", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /users", s.accountH.Create)
	outerMux.HandleFunc("POST /users/activate", s.accountH.Activate)
	outerMux.HandleFunc("POST /reset_password", s.rateLimitedHandler(s.accountH.ResetPassword))
	outerMux.HandleFunc("POST /change_password", s.accountH.ChangePassword)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	renewTTL := time.Duration(0)
	if s.cfg.RenewSessionOnUse {
		renewTTL = s.cfg.SessionTTL
	}
	authMiddleware := middleware.RequireAuth(s.sessionStore, s.accountStore, renewTTL)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Account routes
	mux.HandleFunc("GET /users", s.accountH.List)
	mux.HandleFunc("GET /users/profile", s.accountH.GetProfile)
	mux.HandleFunc("PATCH /users/profile", s.accountH.PatchProfile)
	mux.HandleFunc("PUT /users/profile", s.accountH.RejectPut)
	mux.HandleFunc("GET /users/{id}", s.accountH.Get)
	mux.HandleFunc("PATCH /users/{id}", s.accountH.Patch)
	mux.HandleFunc("PUT /users/{id}", s.accountH.RejectPut)

	// Event routes
	mux.HandleFunc("GET /activity/events", s.eventH.List)
	mux.HandleFunc("POST /activity/events", s.eventH.Create)
	mux.HandleFunc("GET /activity/events/{id}", s.eventH.Get)
	mux.HandleFunc("PATCH /activity/events/{id}", s.eventH.Patch)
	mux.HandleFunc("DELETE /activity/events/{id}", s.eventH.Delete)

	// Participation routes
	mux.HandleFunc("GET /activity/participations", s.participationH.List)
	mux.HandleFunc("POST /activity/participations", s.participationH.Create)
	mux.HandleFunc("GET /activity/participations/{id}", s.participationH.Get)
	mux.HandleFunc("DELETE /activity/participations/{id}", s.participationH.Delete)

	// Video routes
	mux.HandleFunc("GET /videos", s.videoH.List)
	mux.HandleFunc("POST /videos", s.videoH.Upload)
	mux.HandleFunc("GET /videos/genres", s.videoH.Genres)
	mux.HandleFunc("PATCH /videos/activate/{id}", s.videoH.Activate)
	mux.HandleFunc("GET /videos/{id}", s.videoH.Get)
	mux.HandleFunc("PATCH /videos/{id}", s.videoH.Patch)
	mux.HandleFunc("DELETE /videos/{id}", s.videoH.Delete)

	// Entity sync stream
	mux.HandleFunc("GET /ws", realtime.HandleWebSocket(s.hub, s.logger.With("component", "ws")))
}
