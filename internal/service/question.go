package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/repository"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	// MaxListLimit caps an explicit page size. Without a limit FindAll
	// returns every question.
	MaxListLimit = 100
)

// ContentRenderer turns a Markdown body into HTML for the contentHtml field.
// *markdown.Renderer implements it.
type ContentRenderer interface {
	Render(source string) string
}

// QuestionInput is the body of a create request.
type QuestionInput struct {
	Title   string
	Content string
}

// QuestionPatch holds the fields of an update. Empty fields are left as they are.
type QuestionPatch struct {
	Title   string
	Content string
}

// QuestionService handles business logic for questions.
type QuestionService struct {
	repo     repository.QuestionRepository
	likes    *LikeService
	renderer ContentRenderer
	logger   *slog.Logger
}

func NewQuestionService(
	repo repository.QuestionRepository,
	likes *LikeService,
	renderer ContentRenderer,
	logger *slog.Logger,
) *QuestionService {
	return &QuestionService{
		repo:     repo,
		likes:    likes,
		renderer: renderer,
		logger:   logger,
	}
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	return nil
}

// Create posts a new question by author. A fresh question is never liked.
func (s *QuestionService) Create(ctx context.Context, in QuestionInput, author *model.User) (*model.QuestionView, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	q := &model.Question{
		Title:    title,
		Content:  in.Content,
		AuthorID: author.ID,
	}
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		s.logger.Error("failed to create question",
			slog.String("authorID", author.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.logger.Info("question created",
		slog.String("id", q.ID),
		slog.String("authorID", q.AuthorID),
	)
	return s.view(q, false), nil
}

// Update applies patch to the question with id.
//
// Order matters: a missing question is NotFound before anyone's permissions
// are looked at, and nothing is written unless the check passes.
func (s *QuestionService) Update(ctx context.Context, id string, patch QuestionPatch, user *model.User) (*model.QuestionView, error) {
	q, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwnerOrAdmin(q.AuthorID, user, "update", "question"); err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(patch.Title); title != "" {
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		q.Title = title
	}
	if patch.Content != "" {
		if err := validateContent(patch.Content); err != nil {
			return nil, err
		}
		q.Content = patch.Content
	}

	if err := s.repo.UpdateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("updating question: %w", err)
	}

	// An author can't like their own question, so only ask for anyone else.
	liked := false
	if user.ID != q.AuthorID {
		if liked, err = s.likes.IsLikedBy(ctx, q, user); err != nil {
			return nil, err
		}
	}

	s.logger.Info("question updated",
		slog.String("id", q.ID),
		slog.String("by", user.ID),
	)
	return s.view(q, liked), nil
}

// Delete removes the question with id; its answers and all likes on either go with it.
func (s *QuestionService) Delete(ctx context.Context, id string, user *model.User) error {
	q, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CheckOwnerOrAdmin(q.AuthorID, user, "delete", "question"); err != nil {
		return err
	}
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}

	s.logger.Info("question deleted",
		slog.String("id", id),
		slog.String("by", user.ID),
	)
	return nil
}

// FindAll lists questions newest first. limit <= 0 lists all of them;
// a positive limit is capped at MaxListLimit. viewer may be nil.
func (s *QuestionService) FindAll(ctx context.Context, limit, offset int, viewer *model.User) ([]model.QuestionView, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	questions, err := s.repo.ListQuestions(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list questions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing questions: %w", err)
	}

	ids := make([]string, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}
	liked, err := s.likes.LikedSet(ctx, model.TargetQuestion, ids, viewer)
	if err != nil {
		return nil, err
	}

	views := make([]model.QuestionView, 0, len(questions))
	for i := range questions {
		views = append(views, *s.view(&questions[i], liked[questions[i].ID]))
	}
	return views, nil
}

// FindOne returns the question with id. viewer may be nil.
func (s *QuestionService) FindOne(ctx context.Context, id string, viewer *model.User) (*model.QuestionView, error) {
	q, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	liked, err := s.likes.IsLikedBy(ctx, q, viewer)
	if err != nil {
		return nil, err
	}
	return s.view(q, liked), nil
}

func (s *QuestionService) view(q *model.Question, liked bool) *model.QuestionView {
	return &model.QuestionView{
		ID:          q.ID,
		Title:       q.Title,
		Content:     q.Content,
		ContentHTML: s.renderer.Render(q.Content),
		AuthorID:    q.AuthorID,
		IsLiked:     liked,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}
