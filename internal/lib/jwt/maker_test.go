package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name      string
		accountID string
	}{
		{name: "uuid account", accountID: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "short id", accountID: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, issued, err := maker.GenerateToken(tt.accountID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.NotEmpty(t, issued.ID)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.accountID, claims.AccountID())
			assert.Equal(t, issued.ID, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_GenerateToken_UniqueSessionIDs(t *testing.T) {
	maker := NewJWTMaker("secret", time.Minute)

	_, first, err := maker.GenerateToken("acc")
	require.NoError(t, err)
	_, second, err := maker.GenerateToken("acc")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestJWTMaker_GenerateToken_EmptyAccount(t *testing.T) {
	maker := NewJWTMaker("secret", time.Minute)

	token, claims, err := maker.GenerateToken("")
	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Nil(t, claims)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, _, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createExpiredToken(t, secretKey)},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "foreign issuer", token: createForeignToken(t, secretKey, "someone-else", "acc", "jti")},
		{name: "missing jti", token: createForeignToken(t, secretKey, issuer, "acc", "")},
		{name: "unsigned token", token: createUnsignedToken(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	current := time.Now()
	maker := NewJWTMaker("test_secret_key", time.Minute).WithClock(func() time.Time { return current })

	token, _, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)

	current = current.Add(2 * time.Minute)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func createExpiredToken(t *testing.T, secretKey string) string {
	maker := NewJWTMaker(secretKey, -time.Hour)
	token, _, err := maker.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, _, err := wrongMaker.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

func createForeignToken(t *testing.T, secretKey, iss, sub, jti string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    iss,
		Subject:   sub,
		ID:        jti,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "acc",
		ID:        "jti",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func TestJWTMaker_SubSecondIssuedAt(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 250_000_000, time.UTC)
	maker := NewJWTMaker("test_secret_key", time.Hour).WithClock(func() time.Time { return issued })

	token, _, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, issued, claims.IssuedAt.Time, time.Microsecond)
	assert.NotZero(t, claims.IssuedAt.Nanosecond())
}
