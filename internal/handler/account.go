package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/authz"
	"github.com/nomadways/apinomad/internal/email"
	"github.com/nomadways/apinomad/internal/model"
	"github.com/nomadways/apinomad/internal/store"
)

type AccountHandler struct {
	accounts      *store.AccountStore
	tokens        *store.ActionTokenStore
	sessions      *store.SessionStore
	authorizer    *authz.Authorizer
	emailClient   *email.Client
	emailEnabled  bool
	autoActivate  bool
	activationTTL time.Duration
	passwordTTL   time.Duration
	logger        *slog.Logger
}

func NewAccountHandler(
	accounts *store.AccountStore,
	tokens *store.ActionTokenStore,
	sessions *store.SessionStore,
	authorizer *authz.Authorizer,
	emailClient *email.Client,
	emailEnabled, autoActivate bool,
	activationTTL, passwordTTL time.Duration,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		accounts:      accounts,
		tokens:        tokens,
		sessions:      sessions,
		authorizer:    authorizer,
		emailClient:   emailClient,
		emailEnabled:  emailEnabled,
		autoActivate:  autoActivate,
		activationTTL: activationTTL,
		passwordTTL:   passwordTTL,
		logger:        logger,
	}
}

type createAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Create registers a new account. The response depends on configuration:
// with auto-activation the serialized active account comes back directly;
// otherwise an activation token is issued and emailed, and delivery problems
// are reported as an advisory detail on the still-successful creation.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"email": {"Enter a valid email address."},
		})
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"password": {err.Error()},
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	account, err := h.accounts.Create(req.Email, hash, req.FirstName, req.LastName, h.autoActivate)
	if errors.Is(err, store.ErrDuplicateEmail) {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"email": {"An account with this email already exists."},
		})
		return
	}
	if err != nil {
		h.logger.Error("create account", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	if h.autoActivate {
		writeJSON(w, http.StatusCreated, account)
		return
	}

	if !h.emailEnabled {
		writeJSON(w, http.StatusCreated, map[string]string{
			"detail": "The account was created but no email was sent. The account still needs to be activated.",
		})
		return
	}

	token, err := h.tokens.Create(account.ID, model.TokenAccountActivation, h.activationTTL)
	if err != nil {
		h.logger.Error("create activation token", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.emailClient.SendActivation(account.Email, token.Key); err != nil {
		h.logger.Error("send activation email", "error", err, "account", account.ID)
		writeJSON(w, http.StatusCreated, map[string]string{
			"detail": "The account was created but the activation email could not be sent. The account still needs to be activated.",
		})
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// List returns all accounts. Restricted to holders of the account listing
// capability.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !h.authorizer.Authorize(ac, authz.CapListAccounts) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	accounts, err := h.accounts.List()
	if err != nil {
		h.logger.Error("list accounts", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	h.get(w, r, id)
}

// GetProfile resolves the authenticated account.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, auth.AccountID(r.Context()))
}

func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	ac, _ := auth.FromContext(r.Context())
	if id != ac.AccountID && !h.authorizer.Authorize(ac, authz.CapViewAccounts) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	account, err := h.accounts.GetByID(id)
	if err != nil {
		h.logger.Error("get account", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type patchAccountRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *AccountHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	h.patch(w, r, id)
}

func (h *AccountHandler) PatchProfile(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, auth.AccountID(r.Context()))
}

func (h *AccountHandler) patch(w http.ResponseWriter, r *http.Request, id int64) {
	ac, _ := auth.FromContext(r.Context())
	if id != ac.AccountID && !h.authorizer.Authorize(ac, authz.CapChangeAccounts) {
		errorDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	account, err := h.accounts.GetByID(id)
	if err != nil {
		h.logger.Error("get account", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		errorDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var req patchAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	newEmail := account.Email
	if req.Email != nil {
		newEmail = strings.TrimSpace(*req.Email)
		if _, err := mail.ParseAddress(newEmail); err != nil {
			errorFields(w, http.StatusBadRequest, map[string][]string{
				"email": {"Enter a valid email address."},
			})
			return
		}
	}
	firstName := account.FirstName
	if req.FirstName != nil {
		firstName = *req.FirstName
	}
	lastName := account.LastName
	if req.LastName != nil {
		lastName = *req.LastName
	}

	updated, err := h.accounts.Update(id, newEmail, firstName, lastName)
	if errors.Is(err, store.ErrDuplicateEmail) {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"email": {"An account with this email already exists."},
		})
		return
	}
	if err != nil {
		h.logger.Error("update account", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RejectPut answers full-replacement requests with an explicit advisory.
func (h *AccountHandler) RejectPut(w http.ResponseWriter, r *http.Request) {
	errorDetail(w, http.StatusMethodNotAllowed, `Method "PUT" not allowed.`)
}

type activateRequest struct {
	ActivationToken string `json:"activation_token"`
}

// Activate consumes an activation token and marks its account active.
func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	token, err := h.tokens.GetValid(req.ActivationToken, model.TokenAccountActivation)
	switch {
	case errors.Is(err, store.ErrTokenInvalid):
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"activation_token": {"This token is invalid."},
		})
		return
	case errors.Is(err, store.ErrTokenExpired):
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"activation_token": {"This token has expired."},
		})
		return
	case errors.Is(err, store.ErrTokenConflict):
		h.logger.Error("activation token conflict", "key", req.ActivationToken)
		errorDetail(w, http.StatusInternalServerError, "internal inconsistency")
		return
	case err != nil:
		h.logger.Error("lookup activation token", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.accounts.SetActive(token.AccountID, true); err != nil {
		h.logger.Error("activate account", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.tokens.Delete(token.Key); err != nil {
		h.logger.Error("consume activation token", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	account, err := h.accounts.GetByID(token.AccountID)
	if err != nil || account == nil {
		h.logger.Error("load activated account", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPassword issues a password-change token and emails it. Any tokens
// from earlier reset requests are expired first so only the newest link
// works.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !h.emailEnabled || !h.emailClient.Configured() {
		errorDetail(w, http.StatusNotImplemented, "This functionality is not currently available.")
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	account, err := h.accounts.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("reset lookup", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"email": {"No account associated with this email address."},
		})
		return
	}

	if err := h.tokens.ExpireAllForAccount(account.ID, model.TokenPasswordChange); err != nil {
		h.logger.Error("expire reset tokens", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	token, err := h.tokens.Create(account.ID, model.TokenPasswordChange, h.passwordTTL)
	if err != nil {
		h.logger.Error("create reset token", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.emailClient.SendPasswordReset(account.Email, token.Key); err != nil {
		h.logger.Error("send reset email", "error", err, "account", account.ID)
		writeJSON(w, http.StatusCreated, map[string]string{
			"detail": "The reset token was created but the email could not be sent.",
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"detail": "An email has been sent.",
	})
}

type changePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePassword consumes a password-change token and sets the new password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorNonField(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"new_password": {err.Error()},
		})
		return
	}

	token, err := h.tokens.GetValid(req.Token, model.TokenPasswordChange)
	switch {
	case errors.Is(err, store.ErrTokenInvalid):
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"token": {"This token is invalid."},
		})
		return
	case errors.Is(err, store.ErrTokenExpired):
		errorFields(w, http.StatusBadRequest, map[string][]string{
			"token": {"This token has expired."},
		})
		return
	case errors.Is(err, store.ErrTokenConflict):
		h.logger.Error("password token conflict", "key", req.Token)
		errorDetail(w, http.StatusInternalServerError, "internal inconsistency")
		return
	case err != nil:
		h.logger.Error("lookup password token", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.accounts.SetPassword(token.AccountID, hash); err != nil {
		h.logger.Error("set password", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.tokens.Delete(token.Key); err != nil {
		h.logger.Error("consume password token", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Existing sessions stay bound to the old credentials; drop them.
	if err := h.sessions.DeleteByAccount(token.AccountID); err != nil {
		h.logger.Error("drop sessions after password change", "error", err)
	}

	account, err := h.accounts.GetByID(token.AccountID)
	if err != nil || account == nil {
		h.logger.Error("load account after password change", "error", err)
		errorDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, account)
}
