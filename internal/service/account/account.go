package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service/token"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 40
	adminFullName  = "Admin User"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "invalid login attempt")
	ErrUserExists         = apperr.New(apperr.ErrConflict, "a user with this email already exists")
	ErrUserNotFound       = apperr.New(apperr.ErrNotFound, "user not found")
)

type Repository interface {
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByName(ctx context.Context, userName string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

type Tokens interface {
	Issue(ctx context.Context, u *models.User) (*token.Pair, error)
	Refresh(ctx context.Context, userName, refreshToken string) (*token.Pair, error)
	Revoke(ctx context.Context, userID string) error
}

type Service struct {
	Repo           Repository
	Tokens         Tokens
	Events         events.Publisher
	HashCost       int
	RevokeOnLogout bool
}

type RegisterInput struct {
	Name            string
	Email           string
	City            string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}

type Session struct {
	token.Pair
	UserID   string
	UserName string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.New(apperr.ErrValidation, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.New(apperr.ErrValidation, "email is not a valid address")
	}
	return nil
}

// ValidatePassword enforces the length and digit rules and the confirmation match.
func ValidatePassword(password, confirm string) error {
	n := len([]rune(password))
	if n < minPasswordLen || n > maxPasswordLen {
		return apperr.Newf(apperr.ErrValidation, "password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return apperr.New(apperr.ErrValidation, "password must contain at least one digit")
	}
	if password != confirm {
		return apperr.New(apperr.ErrValidation, "passwords do not match")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return nil, apperr.New(apperr.ErrValidation, "name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	if _, err := s.Repo.UserByName(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password, s.HashCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		UserName:     email,
		Email:        email,
		FullName:     name,
		City:         strings.TrimSpace(in.City),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: pwHash,
		Roles:        []string{models.RoleUser},
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	l.Info("user_registered", "user_id", u.ID)
	events.Emit(ctx, s.Events, events.TopicUsers, u.ID, events.New("user_registered", map[string]any{
		"userId":   u.ID,
		"userName": u.UserName,
	}))
	return u, nil
}

func (s *Service) session(ctx context.Context, u *models.User) (*Session, error) {
	pair, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Session{Pair: *pair, UserID: u.ID, UserName: u.UserName}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.ErrValidation, "email and password are required")
	}

	u, err := s.Repo.UserByName(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.session(ctx, u)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.TopicUsers, u.ID, events.New("user_logged_in", map[string]any{"userId": u.ID}))
	return sess, nil
}

func (s *Service) Refresh(ctx context.Context, userName, refreshToken string) (*Session, error) {
	userName = normalizeEmail(userName)
	pair, err := s.Tokens.Refresh(ctx, userName, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.Repo.UserByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	return &Session{Pair: *pair, UserID: u.ID, UserName: u.UserName}, nil
}

// Lookup finds a user by email so callers can check ownership before acting.
func (s *Service) Lookup(ctx context.Context, email string) (*models.User, error) {
	u, err := s.Repo.UserByName(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, newPassword, confirm string) error {
	if err := ValidatePassword(newPassword, confirm); err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePasswordHash(ctx, userID, pwHash); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	events.Emit(ctx, s.Events, events.TopicUsers, userID, events.New("password_changed", map[string]any{"userId": userID}))
	return nil
}

// Logout clears the stored refresh token only when RevokeOnLogout is set.
// Access tokens stay valid until they expire either way.
func (s *Service) Logout(ctx context.Context, userID string) (string, error) {
	if s.RevokeOnLogout && userID != "" {
		if err := s.Tokens.Revoke(ctx, userID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	return "Logged out successfully", nil
}

func (s *Service) VerifyEmail(ctx context.Context, email string) (string, error) {
	u, err := s.Lookup(ctx, email)
	if err != nil {
		return "", err
	}
	return u.UserName, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// SeedAdmin makes sure an Admin account exists for email. An existing user is
// promoted and keeps its password; a new one is created with password.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	l := logging.FromContext(ctx).With("svc", "account.seed_admin")

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, false, err
	}

	existing, err := s.Repo.UserByName(ctx, email)
	switch {
	case err == nil:
		if existing.HasRole(models.RoleAdmin) {
			return existing, false, nil
		}
		existing.Roles = append(existing.Roles, models.RoleAdmin)
		if err := s.Repo.SaveUser(ctx, existing); err != nil {
			return nil, false, err
		}
		l.Info("admin_promoted", "user_id", existing.ID)
		return existing, false, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, false, err
	}

	if err := ValidatePassword(password, password); err != nil {
		return nil, false, err
	}
	pwHash, err := hash.HashPassword(password, s.HashCost)
	if err != nil {
		return nil, false, err
	}
	u := &models.User{
		UserName:     email,
		Email:        email,
		FullName:     adminFullName,
		PasswordHash: pwHash,
		Roles:        []string{models.RoleAdmin},
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	l.Info("admin_created", "user_id", u.ID)
	return u, true, nil
}
