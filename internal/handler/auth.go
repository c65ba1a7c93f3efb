package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/model"
	"github.com/nomadways/apinomad/internal/store"
)

const badCredentials = "Unable to log in with provided credentials."

type AuthHandler struct {
	accounts   *store.AccountStore
	sessions   *store.SessionStore
	sessionTTL time.Duration
	renewOnUse bool
	logger     *slog.Logger
}

func NewAuthHandler(
	accounts *store.AccountStore,
	sessions *store.SessionStore,
	sessionTTL time.Duration,
	renewOnUse bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:   accounts,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		renewOnUse: renewOnUse,
		logger:     logger,
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login verifies credentials and hands out the account's session token.
// Unknown email, inactive account, and wrong password all collapse into the
// same generic message so callers cannot probe which accounts exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		errorNonField(w, http.StatusBadRequest, badCredentials)
		return
	}

	account, err := h.accounts.GetByEmail(req.Login)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil || !account.IsActive || !auth.CheckPassword(account.PasswordHash, req.Password) {
		errorNonField(w, http.StatusBadRequest, badCredentials)
		return
	}

	sess, err := h.sessionFor(account.ID)
	if err != nil {
		h.logger.Error("login session", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": sess.Key})
}

// sessionFor returns the account's live session, renewing it when configured.
// An expired session is deleted and replaced so each account holds at most
// one usable token.
func (h *AuthHandler) sessionFor(accountID int64) (*model.Session, error) {
	existing, err := h.sessions.GetByAccount(accountID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.Expired() {
		if h.renewOnUse {
			if err := h.sessions.Renew(existing.Key, h.sessionTTL); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if existing != nil {
		if err := h.sessions.Delete(existing.Key); err != nil {
			return nil, err
		}
	}
	return h.sessions.Create(accountID, h.sessionTTL)
}

// Logout deletes the caller's session token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		errorDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	if err := h.sessions.Delete(ac.SessionKey); err != nil {
		h.logger.Error("logout", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out."})
}
