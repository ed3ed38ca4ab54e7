package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func newTestService(t *testing.T) (*Service, *repo.GormRepo, *models.User) {
	t.Helper()

	db := testutil.NewDB(t)
	r := repo.New(db)
	u := testutil.CreateUser(t, db, "a@b.com")
	svc := NewService(r, tokens.Signer{
		Secret:   []byte("test-jwt-secret-0123456789"),
		Issuer:   "storefront",
		Audience: "storefront-clients",
		TTL:      30 * time.Minute,
	})
	return svc, r, u
}

func TestIssue_PersistsHashedRefreshToken(t *testing.T) {
	t.Parallel()

	svc, r, u := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 1800, pair.ExpiresIn)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), pair.RefreshExpiresAt, 5*time.Second)

	stored, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, tokens.HashRefreshToken(pair.RefreshToken), *stored.RefreshTokenHash)
	assert.NotEqual(t, pair.RefreshToken, *stored.RefreshTokenHash)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "a@b.com", claims.UserName)
	assert.Equal(t, []string{models.RoleUser}, claims.Roles)
}

func TestRefresh_RotatesAndRejectsOldToken(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, u.UserName, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, u.UserName, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	third, err := svc.Refresh(ctx, u.UserName, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestRefresh_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	svc, r, u := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	hash := tokens.HashRefreshToken(pair.RefreshToken)
	past := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, r.SetRefreshToken(ctx, u.ID, &hash, &past))

	_, err = svc.Refresh(ctx, u.UserName, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_ExpiryIsStrict(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	svc.Now = func() time.Time { return pair.RefreshExpiresAt }
	_, err = svc.Refresh(ctx, u.UserName, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_Rejects(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t)
	ctx := context.Background()
	pair, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	tests := []struct {
		name     string
		userName string
		token    string
	}{
		{name: "unknown user", userName: "nobody@b.com", token: pair.RefreshToken},
		{name: "wrong token", userName: u.UserName, token: "AAAA"},
		{name: "empty token", userName: u.UserName, token: ""},
		{name: "empty user", userName: "", token: pair.RefreshToken},
	}
	for _, tt := range tests {
		_, err := svc.Refresh(ctx, tt.userName, tt.token)
		assert.ErrorIs(t, err, ErrInvalidToken, tt.name)
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t)
	ctx := context.Background()
	pair, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, u.ID))
	_, err = svc.Refresh(ctx, u.UserName, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Validate("not-a-jwt")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
