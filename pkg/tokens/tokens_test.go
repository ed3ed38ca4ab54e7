package tokens

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner() Signer {
	return Signer{
		Secret:   []byte("test-jwt-secret-0123456789"),
		Issuer:   "storefront",
		Audience: "storefront-clients",
		TTL:      30 * time.Minute,
	}
}

func TestSigner_SignParse_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	s := newTestSigner()
	token, exp, err := s.Sign("user-1", "a@b.com", []string{"User"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 2*time.Second)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.UserName)
	assert.Equal(t, []string{"User"}, claims.Roles)
	assert.Equal(t, "storefront", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"storefront-clients"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.IssuedAt)
}

func TestSigner_Parse_Rejects(t *testing.T) {
	t.Parallel()

	s := newTestSigner()
	token, _, err := s.Sign("user-1", "a@b.com", []string{"Admin"})
	require.NoError(t, err)

	otherSecret := s
	otherSecret.Secret = []byte("another-secret-0123456789")

	otherIssuer := s
	otherIssuer.Issuer = "someone-else"

	otherAudience := s
	otherAudience.Audience = "mobile"

	later := s
	later.Now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "iss": s.Issuer, "aud": s.Audience, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "iss": s.Issuer, "aud": s.Audience,
	}).SignedString(s.Secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		signer Signer
		token  string
	}{
		{name: "wrong secret", signer: otherSecret, token: token},
		{name: "wrong issuer", signer: otherIssuer, token: token},
		{name: "wrong audience", signer: otherAudience, token: token},
		{name: "expired", signer: later, token: token},
		{name: "alg none", signer: s, token: noneToken},
		{name: "missing exp", signer: s, token: noExp},
		{name: "garbage", signer: s, token: "not-a-jwt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := tt.signer.Parse(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	h := HashRefreshToken(a)
	assert.Len(t, h, 64)
	assert.True(t, EqualHash(h, HashRefreshToken(a)))
	assert.False(t, EqualHash(h, HashRefreshToken(b)))
}
