package crypto_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	crypt "github.com/IvanChernomyrdin/go-polls/internal/server/crypto"
)

func testJWTConfig() crypt.JWTConfig {
	return crypt.JWTConfig{
		Issuer:     "go-polls",
		Audience:   "polls-cli",
		SigningKey: "supersecretkeysupersecretkey123456",
		AccessTTL:  5 * time.Minute,
	}
}

func TestNewAccessToken_ParseRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()

	tok, err := crypt.NewAccessToken(crypt.Subject{UserID: "user-123", Email: "a@b.c", Name: "Alice"}, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := crypt.ParseAccessToken(tok, cfg)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "a@b.c", claims.Email)
	require.Equal(t, "Alice", claims.Name)
	require.Equal(t, "go-polls", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"polls-cli"}, claims.Audience)
	require.True(t, time.Until(claims.ExpiresAt.Time) > 0)
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()
	cfg.AccessTTL = -time.Minute

	tok, err := crypt.NewAccessToken(crypt.Subject{UserID: "u"}, cfg)
	require.NoError(t, err)

	_, err = crypt.ParseAccessToken(tok, cfg)
	require.ErrorIs(t, err, crypt.ErrTokenExpired)
}

func TestParseAccessToken_WrongKey(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()

	tok, err := crypt.NewAccessToken(crypt.Subject{UserID: "u"}, cfg)
	require.NoError(t, err)

	cfg.SigningKey = "anothersecretanothersecret12345678"
	_, err = crypt.ParseAccessToken(tok, cfg)
	require.ErrorIs(t, err, crypt.ErrTokenInvalid)
}

func TestParseAccessToken_IssuerAudienceSubject(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()

	tok, err := crypt.NewAccessToken(crypt.Subject{UserID: "u"}, cfg)
	require.NoError(t, err)

	badIss := cfg
	badIss.Issuer = "someone-else"
	_, err = crypt.ParseAccessToken(tok, badIss)
	require.ErrorIs(t, err, crypt.ErrTokenIssuer)

	badAud := cfg
	badAud.Audience = "browser"
	_, err = crypt.ParseAccessToken(tok, badAud)
	require.ErrorIs(t, err, crypt.ErrTokenAudience)

	noSub, err := crypt.NewAccessToken(crypt.Subject{UserID: "  "}, cfg)
	require.NoError(t, err)
	_, err = crypt.ParseAccessToken(noSub, cfg)
	require.ErrorIs(t, err, crypt.ErrTokenSubject)
}

func TestParseAccessToken_RejectsOtherAlg(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u"})
	s, err := tok.SignedString([]byte(cfg.SigningKey))
	require.NoError(t, err)

	_, err = crypt.ParseAccessToken(s, cfg)
	require.ErrorIs(t, err, crypt.ErrTokenInvalid)
}

func TestNewRefreshToken_UniqueAndHashed(t *testing.T) {
	t.Parallel()

	a, err := crypt.NewRefreshToken()
	require.NoError(t, err)
	b, err := crypt.NewRefreshToken()
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.Len(t, a, 43) // 32 байта в base64url без паддинга

	require.Len(t, crypt.HashRefreshToken(a), 32)
	require.Equal(t, crypt.HashRefreshToken(a), crypt.HashRefreshToken(a))
	require.NotEqual(t, crypt.HashRefreshToken(a), crypt.HashRefreshToken(b))
}
