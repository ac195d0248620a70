package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/markdown"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory stand-in for sqlite.DB. It implements every
// repository interface, including the uniqueness and cascade rules the real
// schema enforces, so the services can be tested without a database.
// Set failWith to make every call return that error.

type fakeStore struct {
	mu        sync.Mutex
	seq       int
	clock     time.Time
	users     map[string]model.User
	logins    map[string]model.Login // keyed by token
	questions map[string]model.Question
	answers   map[string]model.Answer
	likes     map[string]model.Like
	failWith  error
}

var (
	_ repository.UserRepository     = (*fakeStore)(nil)
	_ repository.LoginRepository    = (*fakeStore)(nil)
	_ repository.QuestionRepository = (*fakeStore)(nil)
	_ repository.AnswerRepository   = (*fakeStore)(nil)
	_ repository.LikeRepository     = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     make(map[string]model.User),
		logins:    make(map[string]model.Login),
		questions: make(map[string]model.Question),
		answers:   make(map[string]model.Answer),
		likes:     make(map[string]model.Like),
	}
}

// next returns a fresh ID and a strictly increasing timestamp.
func (f *fakeStore) next(prefix string) (string, time.Time) {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq), f.clock.Add(time.Duration(f.seq) * time.Second)
}

// --- users ---

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.EmailTaken(u.Email)
		}
	}
	u.ID, u.CreatedAt = f.next("user")
	u.UpdatedAt = u.CreatedAt
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	for tok, l := range f.logins {
		if l.UserID == id {
			delete(f.logins, tok)
		}
	}
	for qid, q := range f.questions {
		if q.AuthorID == id {
			f.deleteQuestionLocked(qid)
		}
	}
	for aid, a := range f.answers {
		if a.AuthorID == id {
			f.deleteAnswerLocked(aid)
		}
	}
	for lid, l := range f.likes {
		if l.UserID == id {
			delete(f.likes, lid)
		}
	}
	return nil
}

// --- logins ---

func (f *fakeStore) CreateLogin(_ context.Context, l *model.Login) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, dup := f.logins[l.Token]; dup {
		return apperror.Conflict("login", "<redacted>")
	}
	l.ID, _ = f.next("login")
	if l.CreatedAt.IsZero() {
		l.CreatedAt = f.clock
	}
	f.logins[l.Token] = *l
	return nil
}

func (f *fakeStore) GetLoginByToken(_ context.Context, token string) (*model.Login, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	l, ok := f.logins[token]
	if !ok {
		return nil, apperror.NotFound("login", "<redacted>")
	}
	return &l, nil
}

func (f *fakeStore) DeleteLoginByToken(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	_, ok := f.logins[token]
	delete(f.logins, token)
	return ok, nil
}

// --- questions ---

func (f *fakeStore) CreateQuestion(_ context.Context, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[q.AuthorID]; !ok {
		return errors.New("FOREIGN KEY constraint failed")
	}
	q.ID, q.CreatedAt = f.next("question")
	q.UpdatedAt = q.CreatedAt
	f.questions[q.ID] = *q
	return nil
}

func (f *fakeStore) GetQuestionByID(_ context.Context, id string) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	q, ok := f.questions[id]
	if !ok {
		return nil, apperror.NotFound("question", id)
	}
	return &q, nil
}

func (f *fakeStore) ListQuestions(_ context.Context, opts repository.ListOptions) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Question, 0, len(f.questions))
	for _, q := range f.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Offset >= len(out) {
		return []model.Question{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateQuestion(_ context.Context, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.questions[q.ID]; !ok {
		return apperror.NotFound("question", q.ID)
	}
	_, q.UpdatedAt = f.next("tick")
	f.questions[q.ID] = *q
	return nil
}

func (f *fakeStore) DeleteQuestion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.questions[id]; !ok {
		return apperror.NotFound("question", id)
	}
	f.deleteQuestionLocked(id)
	return nil
}

func (f *fakeStore) deleteQuestionLocked(id string) {
	delete(f.questions, id)
	for aid, a := range f.answers {
		if a.QuestionID == id {
			f.deleteAnswerLocked(aid)
		}
	}
	for lid, l := range f.likes {
		if l.QuestionID != nil && *l.QuestionID == id {
			delete(f.likes, lid)
		}
	}
}

// --- answers ---

func (f *fakeStore) CreateAnswer(_ context.Context, a *model.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.questions[a.QuestionID]; !ok {
		return errors.New("FOREIGN KEY constraint failed")
	}
	a.ID, a.CreatedAt = f.next("answer")
	a.UpdatedAt = a.CreatedAt
	f.answers[a.ID] = *a
	return nil
}

func (f *fakeStore) GetAnswerByID(_ context.Context, id string) (*model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	a, ok := f.answers[id]
	if !ok {
		return nil, apperror.NotFound("answer", id)
	}
	return &a, nil
}

func (f *fakeStore) ListAnswersByQuestion(_ context.Context, questionID string) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Answer{}
	for _, a := range f.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateAnswer(_ context.Context, a *model.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.answers[a.ID]; !ok {
		return apperror.NotFound("answer", a.ID)
	}
	_, a.UpdatedAt = f.next("tick")
	f.answers[a.ID] = *a
	return nil
}

func (f *fakeStore) DeleteAnswer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.answers[id]; !ok {
		return apperror.NotFound("answer", id)
	}
	f.deleteAnswerLocked(id)
	return nil
}

func (f *fakeStore) deleteAnswerLocked(id string) {
	delete(f.answers, id)
	for lid, l := range f.likes {
		if l.AnswerID != nil && *l.AnswerID == id {
			delete(f.likes, lid)
		}
	}
}

// --- likes ---

func likeMatches(l model.Like, userID string, kind model.TargetKind, targetID string) bool {
	if l.UserID != userID {
		return false
	}
	switch kind {
	case model.TargetQuestion:
		return l.QuestionID != nil && *l.QuestionID == targetID
	case model.TargetAnswer:
		return l.AnswerID != nil && *l.AnswerID == targetID
	}
	return false
}

func (f *fakeStore) FindLike(_ context.Context, userID string, target model.LikeTarget) (*model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, l := range f.likes {
		if likeMatches(l, userID, target.TargetKind(), target.TargetID()) {
			return &l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateLike(_ context.Context, like *model.Like) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	kind := like.TargetKind()
	if kind == 0 {
		return errors.New("like has no target")
	}
	var targetID string
	if like.QuestionID != nil {
		targetID = *like.QuestionID
	} else {
		targetID = *like.AnswerID
	}
	for _, l := range f.likes {
		if likeMatches(l, like.UserID, kind, targetID) {
			return apperror.Conflict("like", like.ID)
		}
	}
	like.ID, like.CreatedAt = f.next("like")
	f.likes[like.ID] = *like
	return nil
}

func (f *fakeStore) DeleteLike(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	_, ok := f.likes[id]
	delete(f.likes, id)
	return ok, nil
}

func (f *fakeStore) LikedTargetIDs(_ context.Context, userID string, kind model.TargetKind, ids []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[string]bool)
	for _, id := range ids {
		for _, l := range f.likes {
			if likeMatches(l, userID, kind, id) {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (f *fakeStore) likeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.likes)
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// services bundles the content services over one shared fake store.
type services struct {
	store     *fakeStore
	likes     *LikeService
	questions *QuestionService
	answers   *AnswerService
}

func newTestServices(t *testing.T) *services {
	t.Helper()
	store := newFakeStore()
	logger := discardLogger()
	md := markdown.New()
	likes := NewLikeService(store, store, store, logger)
	return &services{
		store:     store,
		likes:     likes,
		questions: NewQuestionService(store, likes, md, logger),
		answers:   NewAnswerService(store, store, likes, md, logger),
	}
}

// addUser inserts a user straight into the store.
func (s *services) addUser(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	if err := s.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) error = %v", name, err)
	}
	return u
}

func (s *services) addQuestion(t *testing.T, author *model.User) *model.QuestionView {
	t.Helper()
	q, err := s.questions.Create(context.Background(), QuestionInput{Title: "a title", Content: "some *content*"}, author)
	if err != nil {
		t.Fatalf("Create question error = %v", err)
	}
	return q
}

func (s *services) addAnswer(t *testing.T, author *model.User, questionID string) *model.AnswerView {
	t.Helper()
	a, err := s.answers.Create(context.Background(), AnswerInput{QuestionID: questionID, Content: "an answer"}, author)
	if err != nil {
		t.Fatalf("Create answer error = %v", err)
	}
	return a
}
