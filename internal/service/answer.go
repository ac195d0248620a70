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

// AnswerInput is the body of a create request.
type AnswerInput struct {
	QuestionID string
	Content    string
}

// AnswerService handles business logic for answers.
type AnswerService struct {
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
	likes     *LikeService
	renderer  ContentRenderer
	logger    *slog.Logger
}

func NewAnswerService(
	answers repository.AnswerRepository,
	questions repository.QuestionRepository,
	likes *LikeService,
	renderer ContentRenderer,
	logger *slog.Logger,
) *AnswerService {
	return &AnswerService{
		answers:   answers,
		questions: questions,
		likes:     likes,
		renderer:  renderer,
		logger:    logger,
	}
}

// Create posts an answer by author under an existing question.
func (s *AnswerService) Create(ctx context.Context, in AnswerInput, author *model.User) (*model.AnswerView, error) {
	questionID := strings.TrimSpace(in.QuestionID)
	if questionID == "" {
		return nil, apperror.ValidationFailed("questionId", "question ID is required")
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	if _, err := s.questions.GetQuestionByID(ctx, questionID); err != nil {
		return nil, err
	}

	a := &model.Answer{
		Content:    in.Content,
		AuthorID:   author.ID,
		QuestionID: questionID,
	}
	if err := s.answers.CreateAnswer(ctx, a); err != nil {
		s.logger.Error("failed to create answer",
			slog.String("questionID", questionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating answer: %w", err)
	}

	s.logger.Info("answer created",
		slog.String("id", a.ID),
		slog.String("questionID", a.QuestionID),
		slog.String("authorID", a.AuthorID),
	)
	return s.view(a, false), nil
}

// Update replaces the answer's content when content is non-empty.
func (s *AnswerService) Update(ctx context.Context, id, content string, user *model.User) (*model.AnswerView, error) {
	a, err := s.answers.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwnerOrAdmin(a.AuthorID, user, "update", "answer"); err != nil {
		return nil, err
	}

	if content != "" {
		if err := validateContent(content); err != nil {
			return nil, err
		}
		a.Content = content
	}

	if err := s.answers.UpdateAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("updating answer: %w", err)
	}

	liked := false
	if user.ID != a.AuthorID {
		if liked, err = s.likes.IsLikedBy(ctx, a, user); err != nil {
			return nil, err
		}
	}

	s.logger.Info("answer updated", slog.String("id", a.ID), slog.String("by", user.ID))
	return s.view(a, liked), nil
}

func (s *AnswerService) Delete(ctx context.Context, id string, user *model.User) error {
	a, err := s.answers.GetAnswerByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CheckOwnerOrAdmin(a.AuthorID, user, "delete", "answer"); err != nil {
		return err
	}
	if err := s.answers.DeleteAnswer(ctx, id); err != nil {
		return err
	}

	s.logger.Info("answer deleted", slog.String("id", id), slog.String("by", user.ID))
	return nil
}

// FindByQuestion lists a question's answers in posting order. Asking for the
// answers of a question that doesn't exist is NotFound, not an empty list.
func (s *AnswerService) FindByQuestion(ctx context.Context, questionID string, viewer *model.User) ([]model.AnswerView, error) {
	if _, err := s.questions.GetQuestionByID(ctx, questionID); err != nil {
		return nil, err
	}

	answers, err := s.answers.ListAnswersByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}

	ids := make([]string, len(answers))
	for i := range answers {
		ids[i] = answers[i].ID
	}
	liked, err := s.likes.LikedSet(ctx, model.TargetAnswer, ids, viewer)
	if err != nil {
		return nil, err
	}

	views := make([]model.AnswerView, 0, len(answers))
	for i := range answers {
		views = append(views, *s.view(&answers[i], liked[answers[i].ID]))
	}
	return views, nil
}

func (s *AnswerService) view(a *model.Answer, liked bool) *model.AnswerView {
	return &model.AnswerView{
		ID:          a.ID,
		Content:     a.Content,
		ContentHTML: s.renderer.Render(a.Content),
		AuthorID:    a.AuthorID,
		QuestionID:  a.QuestionID,
		IsLiked:     liked,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
