// Package repository declares the storage interfaces the services depend on.
// The sqlite subpackage implements all of them on a single *sqlite.DB.
package repository

import (
	"context"

	"github.com/sakif/qa-forum/internal/model"
)

// ListOptions pages a listing. Limit <= 0 means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail returns apperror.ErrNotFound when no account uses email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type LoginRepository interface {
	CreateLogin(ctx context.Context, login *model.Login) error
	GetLoginByToken(ctx context.Context, token string) (*model.Login, error)
	// DeleteLoginByToken reports whether a row was removed.
	DeleteLoginByToken(ctx context.Context, token string) (bool, error)
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestionByID(ctx context.Context, id string) (*model.Question, error)
	ListQuestions(ctx context.Context, opts ListOptions) ([]model.Question, error)
	UpdateQuestion(ctx context.Context, q *model.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

type AnswerRepository interface {
	CreateAnswer(ctx context.Context, a *model.Answer) error
	GetAnswerByID(ctx context.Context, id string) (*model.Answer, error)
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]model.Answer, error)
	UpdateAnswer(ctx context.Context, a *model.Answer) error
	DeleteAnswer(ctx context.Context, id string) error
}

type LikeRepository interface {
	// FindLike returns (nil, nil) when userID has not liked target.
	FindLike(ctx context.Context, userID string, target model.LikeTarget) (*model.Like, error)
	// CreateLike returns an apperror.ErrConflict error when the (user, target)
	// pair already has a like.
	CreateLike(ctx context.Context, like *model.Like) error
	// DeleteLike reports whether a row was removed.
	DeleteLike(ctx context.Context, id string) (bool, error)
	// LikedTargetIDs returns the subset of targetIDs of the given kind that
	// userID has liked.
	LikedTargetIDs(ctx context.Context, userID string, kind model.TargetKind, targetIDs []string) (map[string]bool, error)
}
