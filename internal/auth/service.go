// Package auth signs users in and administers the application user table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/logger"
)

// Session is an authenticated login.
type Session struct {
	Token     string       `json:"token"`
	User      *domain.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserInput carries the editable fields of a user. An empty Password on
// update keeps the stored hash.
type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Service handles login sessions and user administration.
type Service struct {
	repo UserRepository
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewService creates a Service whose sessions live for ttl.
func NewService(repo UserRepository, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// Login checks the credentials of an active user and opens a session.
// Unknown users, wrong passwords and inactive accounts all fail with
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	log := logger.FromContext(ctx)

	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("Login: lookup user: %w", err)
	}
	if !u.IsActive {
		log.Warn().Str("username", u.Username).Msg("Login attempt for inactive user")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess := Session{
		Token:     uuid.NewString(),
		User:      u,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	log.Info().Str("username", u.Username).Str("role", u.Role).Msg("User logged in")
	return &sess, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Authenticate resolves a session token to its user. Expired sessions are
// dropped.
func (s *Service) Authenticate(token string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrSessionNotFound
	}
	return sess.User, nil
}

func validateInput(in UserInput, requirePassword bool) error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	if requirePassword && in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidUser)
	}
	if !domain.ValidRole(in.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, in.Role)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ListUsers returns every user, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// CreateUser adds a user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	if err := validateInput(in, true); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     in.IsActive,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().Str("username", u.Username).Str("role", u.Role).Msg("Created user")
	return u, nil
}

// UpdateUser replaces the editable fields of a user.
func (s *Service) UpdateUser(ctx context.Context, id string, in UserInput) (*domain.User, error) {
	if err := validateInput(in, false); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Username = strings.TrimSpace(in.Username)
	u.FullName = in.FullName
	u.Role = in.Role
	u.IsActive = in.IsActive
	if in.Password != "" {
		if u.PasswordHash, err = hashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSessions(u)
	return u, nil
}

// DeleteUser removes a user. actorID is the user performing the deletion,
// who may not delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.refreshSessions(&domain.User{ID: id})
	return nil
}

// refreshSessions updates or drops the sessions of an edited user so that
// role changes and deactivation take effect immediately.
func (s *Service) refreshSessions(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if sess.User.ID != u.ID {
			continue
		}
		if u.Username == "" || !u.IsActive {
			delete(s.sessions, token)
			continue
		}
		sess.User = u
		s.sessions[token] = sess
	}
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, fullName string) error {
	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("EnsureAdmin: lookup user: %w", err)
	}

	_, err = s.CreateUser(ctx, UserInput{
		Username: username,
		Password: password,
		FullName: fullName,
		Role:     domain.RoleAdmin,
		IsActive: true,
	})
	return err
}
