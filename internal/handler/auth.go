package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/service"
)

// AuthHandler serves /auth: login, logout and token validation.
//
// Sessions are bearer tokens. Login returns the token in the Authorization
// response header; clients echo it back as "Authorization: Bearer <token>".
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

type loginResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleLogin checks credentials and opens a session.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"email": "a@example.com", "password": "..."}
// RESPONSE: 200, header "Authorization: Bearer <token>"
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+res.Token)
	// Browsers hide non-safelisted response headers from scripts unless exposed.
	w.Header().Set("Access-Control-Expose-Headers", "Authorization")
	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		ExpiresAt: res.ExpiresAt,
	})
}

// HandleLogout ends the caller's session.
//
// HTTP: POST /auth/logout
//
// 200 even for a repeated logout or a token that never existed. A failure to
// clear the session cache is a 500 and safe to retry.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// HandleValidate returns the user behind the bearer token.
//
// HTTP: GET /auth/validate (behind auth.RequireAuth)
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authorization token is required",
		})
		return
	}
	writeJSON(w, http.StatusOK, user)
}
