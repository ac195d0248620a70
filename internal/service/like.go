package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/repository"
)

// LikeService toggles likes on questions and answers and answers "has this
// viewer liked it?" for the content services.
type LikeService struct {
	likes     repository.LikeRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	logger    *slog.Logger
}

func NewLikeService(
	likes repository.LikeRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	logger *slog.Logger,
) *LikeService {
	return &LikeService{
		likes:     likes,
		questions: questions,
		answers:   answers,
		logger:    logger,
	}
}

// IsLikedBy reports whether user has liked target. Anonymous viewers have
// liked nothing.
func (s *LikeService) IsLikedBy(ctx context.Context, target model.LikeTarget, user *model.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	like, err := s.likes.FindLike(ctx, user.ID, target)
	if err != nil {
		return false, fmt.Errorf("service/like: %w", err)
	}
	return like != nil, nil
}

// LikedSet is the batch form of IsLikedBy for list pages.
func (s *LikeService) LikedSet(ctx context.Context, kind model.TargetKind, ids []string, user *model.User) (map[string]bool, error) {
	if user == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}
	liked, err := s.likes.LikedTargetIDs(ctx, user.ID, kind, ids)
	if err != nil {
		return nil, fmt.Errorf("service/like: %w", err)
	}
	return liked, nil
}

// Toggle flips user's like on target and returns the new state.
//
// Unliking is always allowed. Liking your own content is not. Two toggles
// racing on the same pair settle on whatever the unique index left behind:
// a lost insert reports liked, a lost delete reports unliked.
func (s *LikeService) Toggle(ctx context.Context, target model.LikeTarget, user *model.User) (bool, error) {
	if user == nil {
		return false, apperror.Unauthenticated("authorization token is required")
	}

	existing, err := s.likes.FindLike(ctx, user.ID, target)
	if err != nil {
		return false, fmt.Errorf("service/like: %w", err)
	}

	if existing != nil {
		if _, err := s.likes.DeleteLike(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("service/like: %w", err)
		}
		s.logger.Info("like removed",
			slog.String("userID", user.ID),
			slog.String("target", target.TargetKind().Noun()),
			slog.String("targetID", target.TargetID()),
		)
		return false, nil
	}

	if target.OwnerID() == user.ID {
		return false, apperror.SelfLikeForbidden(target.TargetKind().Noun())
	}

	if err := s.likes.CreateLike(ctx, model.NewLike(user.ID, target)); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return true, nil
		}
		return false, fmt.Errorf("service/like: %w", err)
	}

	s.logger.Info("like added",
		slog.String("userID", user.ID),
		slog.String("target", target.TargetKind().Noun()),
		slog.String("targetID", target.TargetID()),
	)
	return true, nil
}

// ToggleQuestion toggles user's like on the question with id.
func (s *LikeService) ToggleQuestion(ctx context.Context, id string, user *model.User) (*model.LikeResult, error) {
	q, err := s.questions.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toggleResult(ctx, q, user)
}

// ToggleAnswer toggles user's like on the answer with id.
func (s *LikeService) ToggleAnswer(ctx context.Context, id string, user *model.User) (*model.LikeResult, error) {
	a, err := s.answers.GetAnswerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toggleResult(ctx, a, user)
}

func (s *LikeService) toggleResult(ctx context.Context, target model.LikeTarget, user *model.User) (*model.LikeResult, error) {
	liked, err := s.Toggle(ctx, target, user)
	if err != nil {
		return nil, err
	}
	return &model.LikeResult{
		Message: target.TargetKind().Title() + " like status toggled",
		Liked:   liked,
	}, nil
}
