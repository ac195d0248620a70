package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/qa-forum/internal/model"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
//
// t.Helper() makes failures point at the caller's line; t.Cleanup closes the
// DB when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         "user " + email,
		Email:        email,
		PasswordHash: "$2a$04$not-a-real-hash",
		Role:         model.RoleUser,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestQuestion(t *testing.T, db *DB, author *model.User, title string) *model.Question {
	t.Helper()
	q := &model.Question{Title: title, Content: "body of " + title, AuthorID: author.ID}
	if err := db.CreateQuestion(context.Background(), q); err != nil {
		t.Fatalf("failed to create test question: %v", err)
	}
	return q
}

func createTestAnswer(t *testing.T, db *DB, author *model.User, q *model.Question) *model.Answer {
	t.Helper()
	a := &model.Answer{Content: "an answer", AuthorID: author.ID, QuestionID: q.ID}
	if err := db.CreateAnswer(context.Background(), a); err != nil {
		t.Fatalf("failed to create test answer: %v", err)
	}
	return a
}

func createTestLike(t *testing.T, db *DB, user *model.User, target model.LikeTarget) *model.Like {
	t.Helper()
	l := model.NewLike(user.ID, target)
	if err := db.CreateLike(context.Background(), l); err != nil {
		t.Fatalf("failed to create test like: %v", err)
	}
	return l
}

// countRows reads a table's row count straight from the database.
func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
