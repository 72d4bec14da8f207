package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/repository"
	"github.com/iliyamo/restaurant-orders/internal/utils"
)

// pinAttempts bounds how many fresh codes IssuePIN tries on collision.
const pinAttempts = 5

// pinLength is the number of characters in a registration PIN.
const pinLength = 8

// AccountService handles sign in, PIN registration, session refresh and
// the admin's user directory.
type AccountService struct {
	Users  UserStore
	PINs   PINStore
	Tokens TokenStore

	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int

	Now     func() time.Time
	NewCode func() (string, error)
	Log     *log.Logger
}

// Session is what the HTTP layer stores in cookies after a successful
// sign in.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Login checks username and password and opens a session.
func (s *AccountService) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, validationf("all fields are required")
	}
	u, err := s.Users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.open(ctx, u)
}

// Register creates an account gated by a registration PIN.  The new user
// gets the PIN's role and the PIN loses one use.
func (s *AccountService) Register(ctx context.Context, username, password, pin string) (Session, error) {
	username = strings.TrimSpace(username)
	pin = strings.ToUpper(strings.TrimSpace(pin))
	if username == "" || password == "" || pin == "" {
		return Session{}, validationf("all fields are required")
	}
	hash, err := utils.HashPassword(password, s.BcryptCost)
	if err != nil {
		return Session{}, err
	}
	now := nowOr(s.Now)
	u, err := s.Users.RegisterWithPIN(ctx, repository.RegisterParams{
		Username:     username,
		PasswordHash: hash,
		PIN:          pin,
		CreatedAt:    now,
		Audit: func(u model.User) model.AuditEntry {
			return model.AuditEntry{
				UserID:    u.ID,
				Action:    "User registration",
				Details:   fmt.Sprintf("User %s registered with role %s", u.Username, u.Role),
				Timestamp: now,
			}
		},
	})
	switch {
	case errors.Is(err, repository.ErrPINNotFound):
		return Session{}, ErrInvalidPIN
	case errors.Is(err, repository.ErrUserExists):
		return Session{}, ErrUserExists
	case err != nil:
		return Session{}, fmt.Errorf("register %s: %w", username, err)
	}
	return s.open(ctx, u)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new session is issued for its owner.
func (s *AccountService) Refresh(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, ErrUnauthenticated
	}
	now := nowOr(s.Now)
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash, now)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("validate refresh: %w", err)
	}
	u, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	if err := s.Tokens.RevokeRefresh(ctx, hash, now); err != nil {
		return Session{}, fmt.Errorf("revoke refresh: %w", err)
	}
	return s.open(ctx, u)
}

// Logout revokes the refresh token.  An empty token is a no-op.
func (s *AccountService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.Tokens.RevokeRefresh(ctx, utils.HashRefreshRaw(raw), nowOr(s.Now))
}

// CurrentRole returns the role userID holds now, creating the default role
// record if it is missing.  A user that no longer exists yields
// ErrUnauthenticated.
func (s *AccountService) CurrentRole(ctx context.Context, userID uint64) (model.Role, error) {
	role, err := s.Users.EnsureRole(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("role of %d: %w", userID, err)
	}
	return role, nil
}

// open makes sure the user has a role record and issues both tokens.
func (s *AccountService) open(ctx context.Context, u model.User) (Session, error) {
	role, err := s.Users.EnsureRole(ctx, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("ensure role for %d: %w", u.ID, err)
	}
	u.Role = role
	now := nowOr(s.Now)
	at, err := utils.NewAccessToken(s.Secret, u.ID, u.Username, string(u.Role), u.IsSuperuser, now, s.AccessTTL)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	rt, err := utils.NewRefreshToken(now, s.RefreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("refresh token: %w", err)
	}
	if err := s.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return Session{}, fmt.Errorf("store refresh: %w", err)
	}
	return Session{User: u, Access: at, Refresh: rt}, nil
}

// IssuePIN creates a registration PIN granting roleName.  A code that
// collides with an existing one is replaced by a fresh code, up to
// pinAttempts times.
func (s *AccountService) IssuePIN(ctx context.Context, actor Actor, roleName string) (model.RegistrationPIN, error) {
	role, ok := model.ParseRole(roleName)
	if !ok {
		return model.RegistrationPIN{}, validationf("invalid role")
	}
	gen := s.NewCode
	if gen == nil {
		gen = func() (string, error) { return utils.RandomCode(pinLength, utils.CodeAlphabet) }
	}
	now := nowOr(s.Now)
	for attempt := 1; attempt <= pinAttempts; attempt++ {
		code, err := gen()
		if err != nil {
			return model.RegistrationPIN{}, fmt.Errorf("generate pin: %w", err)
		}
		pin, err := s.PINs.CreatePIN(ctx, model.RegistrationPIN{
			Code:      code,
			Role:      string(role),
			CreatedBy: actor.ID,
			CreatedAt: now,
		}, actor.audit("Generate registration PIN", fmt.Sprintf("PIN %s for role %s", code, role), now))
		if errors.Is(err, repository.ErrPINCollision) {
			logger(s.Log).Warnf("pin collision on attempt %d", attempt)
			continue
		}
		if err != nil {
			return model.RegistrationPIN{}, fmt.Errorf("create pin: %w", err)
		}
		return pin, nil
	}
	return model.RegistrationPIN{}, fmt.Errorf("create pin: %w after %d attempts", repository.ErrPINCollision, pinAttempts)
}

// SetRole replaces the role of userID.
func (s *AccountService) SetRole(ctx context.Context, actor Actor, userID uint64, roleName string) error {
	role, ok := model.ParseRole(roleName)
	if !ok {
		return validationf("invalid role")
	}
	now := nowOr(s.Now)
	err := s.Users.SetUserRole(ctx, userID, role,
		actor.audit("Change user role", fmt.Sprintf("User %d set to role %s", userID, role), now))
	if errors.Is(err, repository.ErrUserNotFound) {
		return notFoundf("user not found")
	}
	if err != nil {
		return fmt.Errorf("set role for %d: %w", userID, err)
	}
	return nil
}

// Directory is the admin's view of accounts and PINs.
type Directory struct {
	Users []model.User
	PINs  []model.RegistrationPIN
}

// Directory lists users with their roles and PINs, newest PIN first.
func (s *AccountService) Directory(ctx context.Context) (Directory, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return Directory{}, fmt.Errorf("list users: %w", err)
	}
	pins, err := s.PINs.ListPINs(ctx)
	if err != nil {
		return Directory{}, fmt.Errorf("list pins: %w", err)
	}
	return Directory{Users: users, PINs: pins}, nil
}
