package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/repository"
)

var _ repository.AnswerRepository = (*DB)(nil)

func (db *DB) CreateAnswer(ctx context.Context, a *model.Answer) error {
	now := time.Now()
	a.ID = xid.New().String()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO answers (id, content, author_id, question_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Content,
		a.AuthorID,
		a.QuestionID,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating answer on question %s: %w", a.QuestionID, err)
	}
	return nil
}

func (db *DB) GetAnswerByID(ctx context.Context, id string) (*model.Answer, error) {
	var a model.Answer
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, content, author_id, question_id, created_at, updated_at
		 FROM answers WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.Content, &a.AuthorID, &a.QuestionID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("answer", id)
		}
		return nil, fmt.Errorf("sqlite: getting answer %s: %w", id, err)
	}
	return &a, nil
}

// ListAnswersByQuestion returns a question's answers in the order they were posted.
func (db *DB) ListAnswersByQuestion(ctx context.Context, questionID string) ([]model.Answer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, content, author_id, question_id, created_at, updated_at
		 FROM answers
		 WHERE question_id = ?
		 ORDER BY created_at ASC, id ASC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing answers for question %s: %w", questionID, err)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.Content, &a.AuthorID, &a.QuestionID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer row: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating answers: %w", err)
	}
	return answers, nil
}

func (db *DB) UpdateAnswer(ctx context.Context, a *model.Answer) error {
	a.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE answers SET content = ?, updated_at = ? WHERE id = ?`,
		a.Content, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating answer %s: %w", a.ID, err)
	}
	updated, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !updated {
		return apperror.NotFound("answer", a.ID)
	}
	return nil
}

// DeleteAnswer removes an answer and, by cascade, the likes on it.
func (db *DB) DeleteAnswer(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting answer %s: %w", id, err)
	}
	deleted, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("answer", id)
	}
	return nil
}
