package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/handvol/internal/store"
)

// Accounts is the credential store behind the users endpoints.
type Accounts interface {
	Register(username, password, confirm string) (*store.User, error)
	Login(username, password string) (string, error)
	Logout(token string) error
	UserForToken(token string) (string, error)
}

// UsersHandler serves registration, login and logout.
type UsersHandler struct {
	accounts Accounts
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(accounts Accounts) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type registerResponse struct {
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register handles POST /api/register.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.accounts.Register(req.Username, req.Password, req.Confirm)
	switch {
	case errors.Is(err, store.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, store.ErrEmptyField),
		errors.Is(err, store.ErrPasswordMismatch),
		errors.Is(err, store.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("Error registering user: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Username:  u.Username,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Login handles POST /api/login and returns a bearer token.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.accounts.Login(req.Username, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Printf("Error logging in: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Username: req.Username})
}

// Logout handles POST /api/logout. It must be wrapped in RequireToken.
func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, _ := bearerToken(r)
	if err := h.accounts.Logout(token); err != nil {
		log.Printf("Error logging out: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
