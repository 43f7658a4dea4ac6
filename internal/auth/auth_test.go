package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))

	// salted: same input, different hash
	again, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestTokenRoundTrip(t *testing.T) {
	tk, err := NewTokens("test-secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, tk.TTL())

	raw, err := tk.Make(Identity{UserID: "u1", Email: "a@b.com"})
	require.NoError(t, err)

	id, err := tk.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@b.com"}, id)
}

func TestTokenExpiry(t *testing.T) {
	tk, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	issued := time.Now()
	tk.now = func() time.Time { return issued }
	raw, err := tk.Make(Identity{UserID: "u1"})
	require.NoError(t, err)

	tk.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = tk.Parse(raw)
	require.NoError(t, err)

	tk.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tk.Parse(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejects(t *testing.T) {
	tk, _ := NewTokens("test-secret", time.Hour)
	other, _ := NewTokens("wrong-secret", time.Hour)

	raw, _ := other.Make(Identity{UserID: "u1"})
	_, err := tk.Parse(raw)
	assert.Error(t, err, "wrong key")

	_, err = tk.Parse("not.a.token")
	assert.Error(t, err, "garbage")

	// alg none
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tk.Parse(s)
	assert.Error(t, err, "alg none")
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", ErrNoToken},
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"Basic abc", "", ErrBadToken},
		{"Bearer", "", ErrBadToken},
		{"Bearer a b", "", ErrBadToken},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
