package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	users, err := NewDemoUsers()
	require.NoError(t, err)
	return NewService(users, NewTokens("test-secret", time.Hour))
}

func TestLoginDemoUser(t *testing.T) {
	s := newTestService(t)

	sess, err := s.Login(context.Background(), " Admin@OMI.local ", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", sess.TokenType)
	assert.Equal(t, DemoUserID, sess.UserID)
	assert.Equal(t, DemoName, sess.Name)

	claims, err := s.Verify(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, DemoUserID, claims.UserID)
	assert.Equal(t, DemoEmail, claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestService(t)

	_, err := s.Login(context.Background(), DemoEmail, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(context.Background(), "nobody@omi.local", DemoPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	tokens := NewTokens("secret-a", time.Hour)
	other := NewTokens("secret-b", time.Hour)

	signed, _, err := other.Issue("u1", "a@b.c")
	require.NoError(t, err)
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issued }
	signed, expires, err := tokens.Issue("u1", "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Minute), expires)

	tokens.now = time.Now
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "other"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret"))
}
