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

var _ repository.LoginRepository = (*DB)(nil)

// CreateLogin stores a new session row. The caller supplies Token, UserID
// and ExpiresAt; ID and CreatedAt are filled in here.
func (db *DB) CreateLogin(ctx context.Context, login *model.Login) error {
	login.ID = xid.New().String()
	if login.CreatedAt.IsZero() {
		login.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO logins (id, token, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		login.ID,
		login.Token,
		login.UserID,
		login.CreatedAt,
		login.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting login for user %s: %w", login.UserID, err)
	}
	return nil
}

// GetLoginByToken returns apperror.ErrNotFound for unknown tokens.
// The token itself is never put into error messages.
func (db *DB) GetLoginByToken(ctx context.Context, token string) (*model.Login, error) {
	var l model.Login
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, token, user_id, created_at, expires_at
		 FROM logins WHERE token = ?`,
		token,
	).Scan(&l.ID, &l.Token, &l.UserID, &l.CreatedAt, &l.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("login", "<redacted>")
		}
		return nil, fmt.Errorf("sqlite: getting login: %w", err)
	}
	return &l, nil
}

func (db *DB) DeleteLoginByToken(ctx context.Context, token string) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM logins WHERE token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting login: %w", err)
	}
	return checkAffected(result)
}
