package model

import "time"

// Question is a user-authored post that answers and likes hang off.
type Question struct {
	ID        string    `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Content   string    `json:"content"   db:"content"`
	AuthorID  string    `json:"authorId"  db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (q *Question) TargetKind() TargetKind { return TargetQuestion }
func (q *Question) TargetID() string       { return q.ID }
func (q *Question) OwnerID() string        { return q.AuthorID }

// QuestionView is what the API returns for a question. IsLiked is relative
// to the viewer of the request and is always false for anonymous viewers.
type QuestionView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	AuthorID    string    `json:"authorId"`
	IsLiked     bool      `json:"isLiked"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
