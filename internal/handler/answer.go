package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/service"
)

// AnswerHandler serves /answers.
type AnswerHandler struct {
	answers *service.AnswerService
	logger  *slog.Logger
}

func NewAnswerHandler(answers *service.AnswerService, logger *slog.Logger) *AnswerHandler {
	return &AnswerHandler{answers: answers, logger: logger}
}

// HandleCreate posts an answer.
//
// HTTP: POST /answers
// REQUEST BODY: {"questionId": "...", "content": "markdown"}
func (h *AnswerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req createAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	a, err := h.answers.Create(r.Context(), service.AnswerInput{QuestionID: req.QuestionID, Content: req.Content}, user)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleUpdate edits an answer.
//
// HTTP: PATCH /answers/{id}
func (h *AnswerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req updateAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	a, err := h.answers.Update(r.Context(), chi.URLParam(r, "id"), req.Content, user)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete removes an answer and the likes on it.
//
// HTTP: DELETE /answers/{id}
func (h *AnswerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.answers.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListByQuestion returns a question's answers in posting order.
//
// HTTP: GET /answers/{questionId}
func (h *AnswerHandler) HandleListByQuestion(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())

	answers, err := h.answers.FindByQuestion(r.Context(), chi.URLParam(r, "questionId"), viewer)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}
