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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails the build as soon as *DB stops implementing
// repository.QuestionRepository, instead of when something first passes *DB
// where the interface is expected.
var _ repository.QuestionRepository = (*DB)(nil)

// CreateQuestion inserts a new question, filling in ID and timestamps.
//
// IDs come from xid: 20 URL-safe chars, sortable by creation time.
func (db *DB) CreateQuestion(ctx context.Context, q *model.Question) error {
	now := time.Now()
	q.ID = xid.New().String()
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO questions (id, title, content, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID,
		q.Title,
		q.Content,
		q.AuthorID,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating question: %w", err)
	}
	return nil
}

// GetQuestionByID retrieves a single question.
// sql.ErrNoRows is translated to apperror.NotFound so the handler answers 404.
func (db *DB) GetQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM questions
		 WHERE id = ?`,
		id,
	).Scan(
		&q.ID,
		&q.Title,
		&q.Content,
		&q.AuthorID,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return &q, nil
}

// ListQuestions returns questions newest first. A non-positive Limit
// returns every row from Offset on; SQLite reads LIMIT -1 as "no limit".
func (db *DB) ListQuestions(ctx context.Context, opts repository.ListOptions) ([]model.Question, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM questions
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	// CRITICAL: rows holds a pooled connection until closed.
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(
			&q.ID, &q.Title, &q.Content, &q.AuthorID,
			&q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// UpdateQuestion writes title and content back and bumps updated_at.
// id, author_id and created_at are immutable.
func (db *DB) UpdateQuestion(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE questions
		 SET title = ?, content = ?, updated_at = ?
		 WHERE id = ?`,
		q.Title,
		q.Content,
		q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating question %s: %w", q.ID, err)
	}
	updated, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !updated {
		return apperror.NotFound("question", q.ID)
	}
	return nil
}

// DeleteQuestion removes a question. Its answers, the likes on it and the
// likes on its answers are removed by ON DELETE CASCADE in the same statement.
func (db *DB) DeleteQuestion(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}
	deleted, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("question", id)
	}
	return nil
}
