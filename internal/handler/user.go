package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/qa-forum/internal/service"
)

// UserHandler serves /user: registration, listing and admin deletion.
type UserHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewUserHandler(authService *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: authService, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /user
// REQUEST BODY: {"name": "Ada", "email": "ada@example.com", "password": "..."}
// RESPONSE: 201 with the user (never the password hash)
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleList returns every user.
//
// HTTP: GET /user
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleDelete removes a user and everything they wrote.
//
// HTTP: DELETE /user/{id} (ADMIN only)
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
