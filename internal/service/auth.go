// Package service contains the business rules of the forum.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, checks permissions, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB, so the tests in this
// package run against in-memory fakes. They return apperror values and leave
// the mapping to HTTP status codes to the handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/cache"
	"github.com/sakif/qa-forum/internal/model"
	"github.com/sakif/qa-forum/internal/repository"
)

const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

// errInvalidCredentials is deliberately the same for an unknown email and a
// wrong password, so login can't be used to find out which emails exist.
var errInvalidCredentials = apperror.Unauthenticated("invalid email or password")

// AuthConfig carries the tunables of AuthService.
type AuthConfig struct {
	SessionTTL    time.Duration
	TokenCacheTTL time.Duration
	// AdminEmails are registered with the ADMIN role. Compared lower-cased.
	AdminEmails []string
}

// AuthService owns accounts and sessions: registration, login, logout and
// the token → user resolution used by the auth middleware.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → account rows
//   - logins     repository.LoginRepository → one row per live session
//   - passwords  *auth.PasswordHasher       → bcrypt
//   - tokens     cache.TokenCache           → optional Redis front for logins
type AuthService struct {
	users      repository.UserRepository
	logins     repository.LoginRepository
	passwords  *auth.PasswordHasher
	tokens     cache.TokenCache
	sessionTTL time.Duration
	cacheTTL   time.Duration
	admins     map[string]bool
	now        func() time.Time
	logger     *slog.Logger
}

var _ auth.TokenValidator = (*AuthService)(nil)

// NewAuthService wires an AuthService. A nil tokenCache disables caching.
func NewAuthService(
	users repository.UserRepository,
	logins repository.LoginRepository,
	passwords *auth.PasswordHasher,
	tokenCache cache.TokenCache,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if tokenCache == nil {
		tokenCache = cache.Noop{}
	}
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeEmail(email)] = true
	}
	return &AuthService{
		users:      users,
		logins:     logins,
		passwords:  passwords,
		tokens:     tokenCache,
		sessionTTL: cfg.SessionTTL,
		cacheTTL:   cfg.TokenCacheTTL,
		admins:     admins,
		now:        time.Now,
		logger:     logger,
	}
}

// LoginResult is what a successful Login hands back to the handler.
type LoginResult struct {
	Token     string
	User      *model.User
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The email must not be in use; the role is
// ADMIN for configured admin emails and USER otherwise.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	switch {
	case name == "":
		return nil, apperror.ValidationFailed("name", "name is required")
	case len(name) > MaxNameLength:
		return nil, apperror.ValidationFailed("name", fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	case email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case len(email) > MaxEmailLength:
		return nil, apperror.ValidationFailed("email", "email is too long")
	case password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	// Friendly pre-check. The UNIQUE index still catches a concurrent
	// registration and CreateUser reports it as EmailTaken too.
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.EmailTaken(email)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if s.admins[email] {
		user.Role = model.RoleAdmin
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login checks the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	now := s.now()
	login := &model.Login{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.logins.CreateLogin(ctx, login); err != nil {
		return nil, fmt.Errorf("service/auth: creating login: %w", err)
	}

	s.remember(ctx, token, login)

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &LoginResult{Token: token, User: user, ExpiresAt: login.ExpiresAt}, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
//
// The row goes first, then the cache entry is revoked. If the revoke fails
// the cached entry could keep the token alive, so Logout reports the error
// and the client can retry; the retry revokes again even though the row is
// already gone.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	deleted, err := s.logins.DeleteLoginByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("service/auth: deleting login: %w", err)
	}

	if err := s.tokens.Revoke(ctx, token, s.cacheTTL); err != nil {
		s.logger.Error("token cache revoke failed", slog.String("error", err.Error()))
		return fmt.Errorf("service/auth: revoking cached session: %w", err)
	}

	if deleted {
		s.logger.Info("user logged out")
	}
	return nil
}

// ValidateToken resolves token to its user. Missing, unknown and expired
// tokens all fail with apperror.ErrUnauthenticated; expired sessions are
// removed on the way.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.Unauthenticated("authorization token is required")
	}

	if userID, ok := s.cachedUserID(ctx, token); ok {
		user, err := s.users.GetUserByID(ctx, userID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: loading user: %w", err)
		}
		// Account deleted while the entry was cached.
		_ = s.tokens.Revoke(ctx, token, s.cacheTTL)
		return nil, apperror.Unauthenticated("invalid or expired token")
	}

	login, err := s.logins.GetLoginByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid or expired token")
		}
		return nil, fmt.Errorf("service/auth: loading login: %w", err)
	}

	if login.Expired(s.now()) {
		if _, err := s.logins.DeleteLoginByToken(ctx, token); err != nil {
			s.logger.Warn("failed to remove expired login",
				slog.String("userID", login.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthenticated("invalid or expired token")
	}

	user, err := s.users.GetUserByID(ctx, login.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid or expired token")
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	s.remember(ctx, token, login)
	return user, nil
}

// ListUsers returns every account, oldest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account together with its sessions, questions,
// answers and likes. Route-level RequireRole restricts it to admins.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

func (s *AuthService) cachedUserID(ctx context.Context, token string) (string, bool) {
	userID, ok, err := s.tokens.Get(ctx, token)
	if err != nil {
		s.logger.Warn("token cache lookup failed", slog.String("error", err.Error()))
		return "", false
	}
	return userID, ok
}

// remember caches the session for at most cacheTTL and never past its expiry.
// It uses Add, so a validation racing a logout can't undo the revoke.
func (s *AuthService) remember(ctx context.Context, token string, login *model.Login) {
	ttl := login.ExpiresAt.Sub(s.now())
	if s.cacheTTL < ttl {
		ttl = s.cacheTTL
	}
	if err := s.tokens.Add(ctx, token, login.UserID, ttl); err != nil {
		s.logger.Warn("token cache store failed", slog.String("error", err.Error()))
	}
}
