package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/boothworks/eventdesk/internal/store"
)

// AccountHandler manages exhibitor account endpoints.
type AccountHandler struct {
	Accounts *store.AccountStore
}

type CreateAccountRequest struct {
	Name         string  `json:"name"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
}

type AccountsResponse struct {
	Accounts []store.Account `json:"accounts"`
}

// ListAccounts handles GET /api/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context())
	if err != nil {
		sendStoreError(w, err, "failed to list accounts")
		return
	}

	sendJSON(w, http.StatusOK, AccountsResponse{Accounts: accounts})
}

// GetAccount handles GET /api/accounts/:id
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(chi.URLParam(r, "id"))
	if accountID == "" || !uuidRegex.MatchString(accountID) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	account, err := h.Accounts.GetByID(r.Context(), accountID)
	if err != nil {
		sendStoreError(w, err, "failed to load account")
		return
	}

	sendJSON(w, http.StatusOK, account)
}

// CreateAccount handles POST /api/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing name"})
		return
	}

	account, err := h.Accounts.Create(r.Context(), store.CreateAccountInput{
		Name:         name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.Phone,
	})
	if err != nil {
		sendStoreError(w, err, "failed to create account")
		return
	}

	sendJSON(w, http.StatusOK, account)
}
