package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/qa-forum/internal/config"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/server"
)

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AdminEmails = []string{"carol@example.com"}

	srv, err := server.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return &client{t: t, handler: srv.Handler()}
}

// do sends a request with an optional JSON body and bearer token.
func (c *client) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	return rr
}

// signUp registers and logs in, returning the user and their token.
func (c *client) signUp(name, email string) (model.User, string) {
	c.t.Helper()
	creds := map[string]string{"name": name, "email": email, "password": "pw-" + name}

	rr := c.do(http.MethodPost, "/user", "", creds)
	require.Equal(c.t, http.StatusCreated, rr.Code, rr.Body.String())
	var u model.User
	require.NoError(c.t, json.NewDecoder(rr.Body).Decode(&u))

	rr = c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": creds["password"]})
	require.Equal(c.t, http.StatusOK, rr.Code, rr.Body.String())
	header := rr.Header().Get("Authorization")
	require.Greater(c.t, len(header), len("Bearer "))
	return u, header[len("Bearer "):]
}

func decodeInto[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func TestServer_Healthz(t *testing.T) {
	c := newClient(t)
	rr := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestServer_Forum walks the whole flow: A asks, B likes and unlikes, A
// can't like their own question, admin C deletes it.
func TestServer_Forum(t *testing.T) {
	c := newClient(t)
	a, tokA := c.signUp("alice", "alice@example.com")
	_, tokB := c.signUp("bob", "bob@example.com")
	carol, tokC := c.signUp("carol", "carol@example.com")
	require.Equal(t, model.RoleAdmin, carol.Role)

	rr := c.do(http.MethodPost, "/questions", tokA, map[string]string{"title": "Q1", "content": "why?"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	q := decodeInto[model.QuestionView](t, rr)
	assert.Equal(t, a.ID, q.AuthorID)

	rr = c.do(http.MethodPatch, "/like/question/"+q.ID, tokB, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeInto[model.LikeResult](t, rr).Liked)

	rr = c.do(http.MethodGet, "/questions/"+q.ID, tokB, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeInto[model.QuestionView](t, rr).IsLiked)

	// Anonymous readers still get the question, just not liked.
	rr = c.do(http.MethodGet, "/questions/"+q.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decodeInto[model.QuestionView](t, rr).IsLiked)

	rr = c.do(http.MethodPatch, "/like/question/"+q.ID, tokB, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decodeInto[model.LikeResult](t, rr).Liked)

	rr = c.do(http.MethodPatch, "/like/question/"+q.ID, tokA, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = c.do(http.MethodPost, "/answers", tokB, map[string]string{"questionId": q.ID, "content": "because"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = c.do(http.MethodDelete, "/questions/"+q.ID, tokB, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = c.do(http.MethodDelete, "/questions/"+q.ID, tokC, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = c.do(http.MethodGet, "/questions/"+q.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = c.do(http.MethodGet, "/answers/"+q.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_AuthGuards(t *testing.T) {
	c := newClient(t)
	bob, tokB := c.signUp("bob", "bob@example.com")
	_, tokC := c.signUp("carol", "carol@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"create without token", http.MethodPost, "/questions", "", http.StatusUnauthorized},
		{"create with bogus token", http.MethodPost, "/questions", "bogus", http.StatusUnauthorized},
		{"like without token", http.MethodPatch, "/like/answer/x", "", http.StatusUnauthorized},
		{"validate without token", http.MethodGet, "/auth/validate", "", http.StatusUnauthorized},
		{"list users without token", http.MethodGet, "/user", "", http.StatusUnauthorized},
		{"non-admin deletes user", http.MethodDelete, "/user/" + bob.ID, tokB, http.StatusForbidden},
		{"list questions anonymously", http.MethodGet, "/questions", "", http.StatusOK},
		{"list questions with bogus token", http.MethodGet, "/questions", "bogus", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := c.do(tc.method, tc.path, tc.token, map[string]string{})
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}

	t.Run("admin deletes user and their session dies", func(t *testing.T) {
		rr := c.do(http.MethodDelete, "/user/"+bob.ID, tokC, nil)
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = c.do(http.MethodGet, "/auth/validate", tokB, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestServer_Logout(t *testing.T) {
	c := newClient(t)
	_, tok := c.signUp("alice", "alice@example.com")

	rr := c.do(http.MethodGet, "/auth/validate", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodPost, "/auth/logout", tok, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodGet, "/auth/validate", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Logging out without any token is still a 200.
	rr = c.do(http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
