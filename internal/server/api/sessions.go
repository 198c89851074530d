package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ayusman/handvol/internal/app"
	"github.com/ayusman/handvol/internal/audio"
	"github.com/ayusman/handvol/internal/store"
)

// Controller starts and stops detection sessions.
type Controller interface {
	Start(user string) error
	Stop()
	Status() app.Status
}

// SessionLister lists recorded sessions.
type SessionLister interface {
	List(username string, limit int) ([]*store.SessionRecord, error)
}

// SessionsHandler serves session control and the session history.
type SessionsHandler struct {
	control Controller
	records SessionLister
}

// NewSessionsHandler creates a new SessionsHandler. records may be nil,
// in which case the history endpoint reports an empty list.
func NewSessionsHandler(control Controller, records SessionLister) *SessionsHandler {
	return &SessionsHandler{control: control, records: records}
}

type listSessionsResponse struct {
	Sessions []*store.SessionRecord `json:"sessions"`
}

// Status handles GET /api/session.
func (h *SessionsHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.control.Status())
}

// Start handles POST /api/session/start for the authenticated user.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, _ := UserFromContext(r.Context())

	err := h.control.Start(user)
	switch {
	case errors.Is(err, app.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, audio.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		log.Printf("Error starting session: %v", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.control.Status())
}

// Stop handles POST /api/session/stop. Stopping while idle succeeds.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.control.Stop()
	writeJSON(w, http.StatusOK, h.control.Status())
}

// List handles GET /api/sessions. Query parameters: user, limit.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	resp := listSessionsResponse{Sessions: []*store.SessionRecord{}}
	if h.records != nil {
		sessions, err := h.records.List(r.URL.Query().Get("user"), limit)
		if err != nil {
			log.Printf("Error listing sessions: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to list sessions")
			return
		}
		if sessions != nil {
			resp.Sessions = sessions
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
