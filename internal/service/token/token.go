package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const RefreshTokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = apperr.New(apperr.ErrUnauthorized, "invalid refresh token")

type UserStore interface {
	UserByName(ctx context.Context, userName string) (*models.User, error)
	SetRefreshToken(ctx context.Context, userID string, hash *string, expiresAt *time.Time) error
	RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) (bool, error)
}

type Pair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Service struct {
	Users  UserStore
	Signer tokens.Signer
	Now    func() time.Time
}

func NewService(users UserStore, signer tokens.Signer) *Service {
	return &Service{Users: users, Signer: signer}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newPair(u *models.User) (*Pair, string, error) {
	access, accessExp, err := s.Signer.Sign(u.ID, u.UserName, u.Roles)
	if err != nil {
		return nil, "", err
	}
	refresh, err := tokens.NewRefreshToken()
	if err != nil {
		return nil, "", err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int(s.Signer.TTL / time.Second),
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: s.now().UTC().Add(RefreshTokenTTL),
	}, tokens.HashRefreshToken(refresh), nil
}

// Issue creates a new access token and refresh token for u. The refresh token
// replaces whatever the user had before.
func (s *Service) Issue(ctx context.Context, u *models.User) (*Pair, error) {
	pair, hash, err := s.newPair(u)
	if err != nil {
		return nil, err
	}
	exp := pair.RefreshExpiresAt
	if err := s.Users.SetRefreshToken(ctx, u.ID, &hash, &exp); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// stops working once this returns successfully.
func (s *Service) Refresh(ctx context.Context, userName, presented string) (*Pair, error) {
	l := logging.FromContext(ctx).With("svc", "token.refresh")

	if userName == "" || presented == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.Users.UserByName(ctx, userName)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Debug("refresh_rejected", "reason", "unknown user")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if u.RefreshTokenHash == nil || u.RefreshTokenExpiresAt == nil {
		l.Debug("refresh_rejected", "reason", "no stored token")
		return nil, ErrInvalidToken
	}

	presentedHash := tokens.HashRefreshToken(presented)
	if !tokens.EqualHash(presentedHash, *u.RefreshTokenHash) {
		l.Debug("refresh_rejected", "reason", "hash mismatch")
		return nil, ErrInvalidToken
	}
	if !u.RefreshTokenExpiresAt.After(s.now()) {
		l.Debug("refresh_rejected", "reason", "expired")
		return nil, ErrInvalidToken
	}

	pair, hash, err := s.newPair(u)
	if err != nil {
		return nil, err
	}
	rotated, err := s.Users.RotateRefreshToken(ctx, u.ID, presentedHash, hash, pair.RefreshExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !rotated {
		l.Debug("refresh_rejected", "reason", "lost rotation race")
		return nil, ErrInvalidToken
	}
	return pair, nil
}

func (s *Service) Validate(accessToken string) (*tokens.AccessClaims, error) {
	claims, err := s.Signer.Parse(accessToken)
	if err != nil {
		return nil, apperr.Newf(apperr.ErrUnauthorized, "invalid access token: %v", err)
	}
	return claims, nil
}

func (s *Service) Revoke(ctx context.Context, userID string) error {
	return s.Users.SetRefreshToken(ctx, userID, nil, nil)
}
