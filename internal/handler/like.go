package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/service"
)

// LikeHandler serves the /like toggles.
type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// HandleToggleQuestion likes or unlikes a question.
//
// HTTP: PATCH /like/question/{id}
// RESPONSE: {"message": "Question like status toggled", "liked": true}
func (h *LikeHandler) HandleToggleQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	res, err := h.likes.ToggleQuestion(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleToggleAnswer likes or unlikes an answer.
//
// HTTP: PATCH /like/answer/{id}
func (h *LikeHandler) HandleToggleAnswer(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	res, err := h.likes.ToggleAnswer(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
