package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/service"
)

// QuestionHandler serves /questions.
type QuestionHandler struct {
	questions *service.QuestionService
	logger    *slog.Logger
}

func NewQuestionHandler(questions *service.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, logger: logger}
}

// HandleCreate posts a question as the authenticated user.
//
// HTTP: POST /questions
// REQUEST BODY: {"title": "...", "content": "markdown"}
func (h *QuestionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req createQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	q, err := h.questions.Create(r.Context(), service.QuestionInput{Title: req.Title, Content: req.Content}, user)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// HandleUpdate edits a question. The id travels in the body.
//
// HTTP: PATCH /questions
// REQUEST BODY: {"id": "...", "title": "optional", "content": "optional"}
func (h *QuestionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req updateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	q, err := h.questions.Update(r.Context(), req.ID,
		service.QuestionPatch{Title: req.Title, Content: req.Content}, user)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleDelete removes a question with its answers and likes.
//
// HTTP: DELETE /questions/{id}
func (h *QuestionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.questions.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList returns questions newest first: all of them, or one page when
// limit is given.
//
// HTTP: GET /questions[?limit=20&offset=0]
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	viewer, _ := auth.UserFromContext(r.Context())
	questions, err := h.questions.FindAll(r.Context(), limit, offset, viewer)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// HandleGet returns one question.
//
// HTTP: GET /questions/{id}
func (h *QuestionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())

	q, err := h.questions.FindOne(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// queryInt reads an optional non-negative integer query parameter; absent is 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a non-negative integer")
	}
	return n, nil
}
