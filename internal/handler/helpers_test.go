package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/handler"
	"github.com/sakif/qa-forum/internal/markdown"
	"github.com/sakif/qa-forum/internal/model"
	sqliteRepo "github.com/sakif/qa-forum/internal/repository/sqlite"
	"github.com/sakif/qa-forum/internal/service"
)

// fixture wires the real services over an in-memory database. Handlers are
// called directly; routing and middleware are covered by the server tests.
type fixture struct {
	db        *sqliteRepo.DB
	auth      *service.AuthService
	authH     *handler.AuthHandler
	users     *handler.UserHandler
	questions *handler.QuestionHandler
	answers   *handler.AnswerHandler
	likes     *handler.LikeHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	authSvc := service.NewAuthService(db, db, passwords, nil, service.AuthConfig{
		SessionTTL:    time.Hour,
		TokenCacheTTL: time.Minute,
		AdminEmails:   []string{"admin@example.com"},
	}, logger)
	renderer := markdown.New()
	likeSvc := service.NewLikeService(db, db, db, logger)
	questionSvc := service.NewQuestionService(db, likeSvc, renderer, logger)
	answerSvc := service.NewAnswerService(db, db, likeSvc, renderer, logger)

	return &fixture{
		db:        db,
		auth:      authSvc,
		authH:     handler.NewAuthHandler(authSvc, logger),
		users:     handler.NewUserHandler(authSvc, logger),
		questions: handler.NewQuestionHandler(questionSvc, logger),
		answers:   handler.NewAnswerHandler(answerSvc, logger),
		likes:     handler.NewLikeHandler(likeSvc, logger),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), name, email, "s3cret-pass")
	require.NoError(t, err)
	return u
}

// request describes one handler invocation.
type request struct {
	method string
	target string
	body   string
	user   *model.User       // placed in the context as RequireAuth would
	params map[string]string // chi URL params
	header http.Header
}

func serve(h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	var body io.Reader
	if req.body != "" {
		body = bytes.NewBufferString(req.body)
	}
	r := httptest.NewRequest(req.method, req.target, body)
	r.Header.Set("Content-Type", "application/json")
	for k, vs := range req.header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}

	rctx := chi.NewRouteContext()
	for k, v := range req.params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if req.user != nil {
		ctx = auth.WithUser(ctx, req.user)
	}

	rr := httptest.NewRecorder()
	h(rr, r.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
