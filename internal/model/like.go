package model

import "time"

// TargetKind tags which kind of content a Like points at.
type TargetKind int

const (
	TargetQuestion TargetKind = iota + 1
	TargetAnswer
)

// Noun is the lower-case name users see, e.g. in "you cannot like your own answer".
func (k TargetKind) Noun() string {
	switch k {
	case TargetQuestion:
		return "question"
	case TargetAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// Title is the capitalised name used in toggle response messages.
func (k TargetKind) Title() string {
	switch k {
	case TargetQuestion:
		return "Question"
	case TargetAnswer:
		return "Answer"
	default:
		return "Unknown"
	}
}

func (k TargetKind) String() string { return k.Noun() }

// LikeTarget is anything a user can like. *Question and *Answer implement it.
type LikeTarget interface {
	TargetKind() TargetKind
	TargetID() string
	OwnerID() string
}

// Like records that a user likes exactly one question or one answer.
// Exactly one of QuestionID and AnswerID is non-nil.
type Like struct {
	ID         string    `json:"id"                   db:"id"`
	UserID     string    `json:"userId"               db:"user_id"`
	QuestionID *string   `json:"questionId,omitempty" db:"question_id"`
	AnswerID   *string   `json:"answerId,omitempty"   db:"answer_id"`
	CreatedAt  time.Time `json:"createdAt"            db:"created_at"`
}

// NewLike builds an unsaved Like from userID to target, filling whichever
// foreign key matches the target's kind.
func NewLike(userID string, target LikeTarget) *Like {
	id := target.TargetID()
	like := &Like{UserID: userID}
	switch target.TargetKind() {
	case TargetQuestion:
		like.QuestionID = &id
	case TargetAnswer:
		like.AnswerID = &id
	}
	return like
}

// TargetKind reports which foreign key is set.
func (l *Like) TargetKind() TargetKind {
	switch {
	case l.QuestionID != nil:
		return TargetQuestion
	case l.AnswerID != nil:
		return TargetAnswer
	default:
		return 0
	}
}

// LikeResult is the response to a toggle request.
type LikeResult struct {
	Message string `json:"message"`
	Liked   bool   `json:"liked"`
}
