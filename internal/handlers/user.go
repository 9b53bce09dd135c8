package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/service"
)

// UserHandler handles user registration and login sync.
type UserHandler struct {
	notifier service.NotifierService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(notifier service.NotifierService) *UserHandler {
	return &UserHandler{notifier: notifier}
}

// RegisterRequest represents the HTTP request payload for registration.
type RegisterRequest struct {
	ID            string `json:"id"`
	Handle        string `json:"handle"`
	DisplayName   string `json:"displayName,omitempty"`
	CredentialRef string `json:"credentialRef"`
}

// UserResponse is a registered user without its credential reference.
type UserResponse struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	DisplayName  string `json:"displayName,omitempty"`
	RegisteredAt string `json:"registeredAt"`
}

// Register handles POST /api/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.notifier.RegisterUser(ctx, service.RegisterRequest{
		ID:            req.ID,
		Handle:        req.Handle,
		DisplayName:   req.DisplayName,
		CredentialRef: req.CredentialRef,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to register user")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, UserResponse{
		ID:           user.ID,
		Handle:       user.Handle,
		DisplayName:  user.DisplayName,
		RegisteredAt: user.RegisteredAt.UTC().Format(time.RFC3339),
	})
}

// Sync handles POST /api/users/{id}/sync.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.notifier.SyncUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to sync user")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
