package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tokens := NewTokenManager(testSecret, "fintrack-test", 24*time.Hour)

	token, err := tokens.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenManager_Expired(t *testing.T) {
	// A negative lifetime places exp in the past at issue time.
	tokens := NewTokenManager(testSecret, "fintrack-test", -time.Hour)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = tokens.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_LifetimeWindow(t *testing.T) {
	tokens := NewTokenManager(testSecret, "fintrack-test", 24*time.Hour)

	sign := func(issuedAgo time.Duration) string {
		now := time.Now().Add(-issuedAgo)
		claims := jwt.RegisteredClaims{
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return signed
	}

	// A token issued an hour ago is still inside its 24h window.
	userID, err := tokens.Validate(sign(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	// One issued 25 hours ago is past it.
	_, err = tokens.Validate(sign(25 * time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("one secret", "fintrack-test", time.Hour)
	validator := NewTokenManager("another secret", "fintrack-test", time.Hour)

	token, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Malformed(t *testing.T) {
	tokens := NewTokenManager(testSecret, "fintrack-test", time.Hour)

	for _, garbage := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tokens.Validate(garbage)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", garbage)
	}
}

func TestTokenManager_BadSubject(t *testing.T) {
	tokens := NewTokenManager(testSecret, "fintrack-test", time.Hour)

	cases := map[string]jwt.RegisteredClaims{
		"missing subject": {
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		"non-numeric subject": {
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			require.NoError(t, err)

			_, err = tokens.Validate(signed)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_RejectsUnsignedAlg(t *testing.T) {
	tokens := NewTokenManager(testSecret, "fintrack-test", time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
