package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// targetColumn maps a target kind to the likes column holding its id.
// The result is one of two constants, so it is safe to splice into SQL.
func targetColumn(kind model.TargetKind) (string, error) {
	switch kind {
	case model.TargetQuestion:
		return "question_id", nil
	case model.TargetAnswer:
		return "answer_id", nil
	default:
		return "", fmt.Errorf("sqlite: unknown like target kind %d", kind)
	}
}

// FindLike returns the like userID placed on target, or (nil, nil).
func (db *DB) FindLike(ctx context.Context, userID string, target model.LikeTarget) (*model.Like, error) {
	col, err := targetColumn(target.TargetKind())
	if err != nil {
		return nil, err
	}

	var l model.Like
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, question_id, answer_id, created_at
		 FROM likes
		 WHERE user_id = ? AND `+col+` = ?`,
		userID, target.TargetID(),
	).Scan(&l.ID, &l.UserID, &l.QuestionID, &l.AnswerID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding like on %s %s: %w",
			target.TargetKind(), target.TargetID(), err)
	}
	return &l, nil
}

// CreateLike inserts like. A second like on the same (user, target) hits one
// of the partial unique indexes and comes back as apperror.ErrConflict.
func (db *DB) CreateLike(ctx context.Context, like *model.Like) error {
	if like.TargetKind() == 0 {
		return fmt.Errorf("sqlite: like has no target")
	}
	like.ID = xid.New().String()
	like.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO likes (id, user_id, question_id, answer_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		like.ID,
		like.UserID,
		like.QuestionID,
		like.AnswerID,
		like.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("like", like.ID)
		}
		return fmt.Errorf("sqlite: creating like: %w", err)
	}
	return nil
}

func (db *DB) DeleteLike(ctx context.Context, id string) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM likes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting like %s: %w", id, err)
	}
	return checkAffected(result)
}

// LikedTargetIDs answers "which of these did userID like?" in one query,
// so list endpoints don't issue one lookup per row.
func (db *DB) LikedTargetIDs(ctx context.Context, userID string, kind model.TargetKind, targetIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return liked, nil
	}

	col, err := targetColumn(kind)
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(targetIDs)), ",")
	args := make([]any, 0, len(targetIDs)+1)
	args = append(args, userID)
	for _, id := range targetIDs {
		args = append(args, id)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+col+` FROM likes
		 WHERE user_id = ? AND `+col+` IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing liked %ss: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning liked id: %w", err)
		}
		liked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating liked ids: %w", err)
	}
	return liked, nil
}
