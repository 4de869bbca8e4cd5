package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewCodec_EmptySecret(t *testing.T) {
	t.Parallel()
	_, err := NewCodec("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()
	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	codec, err := NewCodec(testSecret, 0, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, codec.TTL())

	token, err := codec.Issue(42)
	require.NoError(t, err)

	claim, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claim.UserID)
	assert.True(t, claim.IssuedAt.Equal(issuedAt))
	assert.True(t, claim.ExpiresAt.Equal(issuedAt.Add(360000*time.Second)))
}

func TestCodec_EmbedsUserObject(t *testing.T) {
	t.Parallel()
	codec, err := NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := codec.Issue(7)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	user, ok := claims["user"].(map[string]any)
	require.True(t, ok, "expected user object in payload")
	assert.Equal(t, float64(7), user["id"])
	assert.Equal(t, "HS256", parsed.Header["alg"])
}

func TestCodec_Verify_Failures(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	codec, err := NewCodec(testSecret, time.Hour, WithClock(fixedClock(start)))
	require.NoError(t, err)
	valid, err := codec.Issue(1)
	require.NoError(t, err)

	otherCodec, err := NewCodec("another-secret-key-0000000000000000000000", time.Hour, WithClock(fixedClock(start)))
	require.NoError(t, err)
	foreign, err := otherCodec.Issue(1)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user": map[string]any{"id": 1},
		"exp":  start.Add(time.Hour).Unix(),
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": start.Add(time.Hour).Unix(),
	})
	noUserToken, err := noUser.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": map[string]any{"id": 1},
	})
	noExpToken, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"Empty", "", ErrInvalidToken},
		{"Garbage", "not.a.token", ErrInvalidToken},
		{"Tampered", valid[:len(valid)-2] + "xx", ErrInvalidToken},
		{"Wrong secret", foreign, ErrInvalidToken},
		{"Alg none", noneToken, ErrInvalidToken},
		{"Missing user", noUserToken, ErrInvalidToken},
		{"Missing expiry", noExpToken, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	codec, err := NewCodec(testSecret, time.Hour, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	token, err := codec.Issue(5)
	require.NoError(t, err)

	now = start.Add(59 * time.Minute)
	_, err = codec.Verify(token)
	assert.NoError(t, err)

	now = start.Add(time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)

	now = start.Add(2 * time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_Verify_Deterministic(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer, err := NewCodec(testSecret, time.Minute, WithClock(fixedClock(start)))
	require.NoError(t, err)
	token, err := issuer.Issue(9)
	require.NoError(t, err)

	for _, offset := range []time.Duration{0, 30 * time.Second, time.Minute, time.Hour} {
		a, errA := NewCodec(testSecret, time.Minute, WithClock(fixedClock(start.Add(offset))))
		require.NoError(t, errA)
		b, errB := NewCodec(testSecret, time.Minute, WithClock(fixedClock(start.Add(offset))))
		require.NoError(t, errB)

		claimA, verifyA := a.Verify(token)
		claimB, verifyB := b.Verify(token)
		assert.Equal(t, verifyA, verifyB)
		assert.Equal(t, claimA, claimB)
	}
}

func TestCodec_IssueRejectsZeroUser(t *testing.T) {
	t.Parallel()
	codec, err := NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = codec.Issue(0)
	assert.Error(t, err)
}
