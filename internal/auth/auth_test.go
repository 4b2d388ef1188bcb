package auth

import (
	"strings"
	"testing"
	"time"

	"marketplace/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret-with-at-least-32-characters!"
	return cfg
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))

	other, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")
}

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager(testConfig())
	require.NoError(t, err)

	tok, err := m.Issue("user-1")
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "marketplace-api", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"marketplace-client"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 30*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyRejects(t *testing.T) {
	cfg := testConfig()
	m, err := NewTokenManager(cfg)
	require.NoError(t, err)
	valid, err := m.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	otherSecret := testConfig()
	otherSecret.JWTSecret = "a-completely-different-secret-value!!"
	forger, err := NewTokenManager(otherSecret)
	require.NoError(t, err)
	forged, err := forger.Issue("user-1")
	require.NoError(t, err)

	otherAlg := testConfig()
	otherAlg.JWTAlgorithm = "HS512"
	hs512, err := NewTokenManager(otherAlg)
	require.NoError(t, err)
	wrongAlg, err := hs512.Issue("user-1")
	require.NoError(t, err)

	otherAud := testConfig()
	otherAud.JWTAudience = "someone-else"
	audM, err := NewTokenManager(otherAud)
	require.NoError(t, err)
	wrongAud, err := audM.Issue("user-1")
	require.NoError(t, err)

	expiredM, err := NewTokenManager(cfg)
	require.NoError(t, err)
	expiredM.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredM.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"tampered", tampered},
		{"wrong secret", forged},
		{"wrong algorithm", wrongAlg},
		{"wrong audience", wrongAud},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenManager_RejectsUnsupportedAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.JWTAlgorithm = "RS256"
	_, err := NewTokenManager(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.JWTSecret = ""
	_, err = NewTokenManager(cfg)
	assert.Error(t, err)
}
