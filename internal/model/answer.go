package model

import "time"

// Answer is a reply to a Question. Deleting the question deletes its answers.
type Answer struct {
	ID         string    `json:"id"         db:"id"`
	Content    string    `json:"content"    db:"content"`
	AuthorID   string    `json:"authorId"   db:"author_id"`
	QuestionID string    `json:"questionId" db:"question_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

func (a *Answer) TargetKind() TargetKind { return TargetAnswer }
func (a *Answer) TargetID() string       { return a.ID }
func (a *Answer) OwnerID() string        { return a.AuthorID }

type AnswerView struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	AuthorID    string    `json:"authorId"`
	QuestionID  string    `json:"questionId"`
	IsLiked     bool      `json:"isLiked"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
