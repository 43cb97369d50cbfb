package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSigner_SignAndParse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSigner("s3cret", 15*time.Minute, fixedClock(now))

	tok, err := s.Sign("user-1", "alice")
	require.NoError(t, err)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, ClaimsVersion, claims.Version)
	assert.Equal(t, now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
}

func TestSigner_Defaults(t *testing.T) {
	s := NewSigner("  ", 0, nil)
	assert.True(t, s.UsesDefaultSecret())
	assert.Equal(t, DefaultTTL, s.TTL())
}

func TestSigner_ParseExpired(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	signer := NewSigner("s3cret", time.Minute, fixedClock(issued))
	tok, err := signer.Sign("user-1", "alice")
	require.NoError(t, err)

	verifier := NewSigner("s3cret", time.Minute, time.Now)
	_, err = verifier.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwtlib.ErrTokenExpired)
}

func TestSigner_ParseWrongSecret(t *testing.T) {
	tok, err := NewSigner("one", 0, nil).Sign("user-1", "alice")
	require.NoError(t, err)

	_, err = NewSigner("two", 0, nil).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_ParseTampered(t *testing.T) {
	s := NewSigner("s3cret", 0, nil)
	tok, err := s.Sign("user-1", "alice")
	require.NoError(t, err)

	_, err = s.Parse(tok[:len(tok)-2] + "xx")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwtlib.MapClaims{
		"ver":      ClaimsVersion,
		"uid":      "user-1",
		"username": "alice",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Minute).Unix(),
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewSigner("s3cret", 0, nil).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_ClaimShape(t *testing.T) {
	secret := []byte("s3cret")
	sign := func(c jwtlib.MapClaims) string {
		tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(secret)
		require.NoError(t, err)
		return tok
	}
	base := func() jwtlib.MapClaims {
		return jwtlib.MapClaims{
			"ver":      ClaimsVersion,
			"uid":      "user-1",
			"username": "alice",
			"iat":      time.Now().Unix(),
			"exp":      time.Now().Add(time.Minute).Unix(),
		}
	}
	s := NewSigner(string(secret), 0, nil)

	t.Run("valid", func(t *testing.T) {
		_, err := s.Parse(sign(base()))
		assert.NoError(t, err)
	})
	t.Run("unknown claim", func(t *testing.T) {
		c := base()
		c["role"] = "admin"
		_, err := s.Parse(sign(c))
		assert.ErrorIs(t, err, ErrUnknownClaim)
	})
	t.Run("old version", func(t *testing.T) {
		c := base()
		c["ver"] = 0
		_, err := s.Parse(sign(c))
		assert.ErrorIs(t, err, ErrClaimsVersion)
	})
	t.Run("missing uid", func(t *testing.T) {
		c := base()
		delete(c, "uid")
		_, err := s.Parse(sign(c))
		assert.ErrorIs(t, err, ErrMissingClaim)
	})
	t.Run("missing username", func(t *testing.T) {
		c := base()
		c["username"] = ""
		_, err := s.Parse(sign(c))
		assert.ErrorIs(t, err, ErrMissingClaim)
	})
	t.Run("missing iat", func(t *testing.T) {
		c := base()
		delete(c, "iat")
		_, err := s.Parse(sign(c))
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, ErrMissingClaim)
	})
	t.Run("missing exp", func(t *testing.T) {
		c := base()
		delete(c, "exp")
		_, err := s.Parse(sign(c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
