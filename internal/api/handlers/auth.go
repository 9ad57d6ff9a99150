package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/smart-accountant/internal/api/middleware"
	"github.com/dvloznov/smart-accountant/internal/auth"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		writeServiceError(r.Context(), w, err, "Login")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sess)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(middleware.BearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}

// UsersHandler handles admin user management endpoints.
type UsersHandler struct {
	auth *auth.Service
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(svc *auth.Service) *UsersHandler {
	return &UsersHandler{auth: svc}
}

// ListUsers handles GET /api/users
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "List users")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// CreateUser handles POST /api/users
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.auth.CreateUser(r.Context(), in)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Create user")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, u)
}

// UpdateUser handles PUT /api/users/{id}
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.auth.UpdateUser(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Update user")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/{id}
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	var actorID string
	if actor != nil {
		actorID = actor.ID
	}

	if err := h.auth.DeleteUser(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err, "Delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
