package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	// ClaimsVersion is bumped whenever the payload shape changes.
	ClaimsVersion = 1

	DefaultTTL    = 15 * time.Minute
	defaultSecret = "authcore-secret-change-me"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrClaimsVersion = errors.New("unsupported claims version")
	ErrMissingClaim  = errors.New("missing required claim")
	ErrUnknownClaim  = errors.New("unknown claim")
)

// Claims is the JWT payload of an access credential.
type Claims struct {
	Version  int    `json:"ver"`
	UserID   string `json:"uid"`
	Username string `json:"username"`
	jwtlib.RegisteredClaims
}

// Signer signs and parses HS256 access tokens with a single secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer. An empty secret falls back to the built-in default,
// a non-positive ttl to DefaultTTL and a nil clock to time.Now.
func NewSigner(secret string, ttl time.Duration, now func() time.Time) *Signer {
	if strings.TrimSpace(secret) == "" {
		secret = defaultSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: now}
}

// UsesDefaultSecret reports whether the signer runs on the built-in secret.
func (s *Signer) UsesDefaultSecret() bool { return string(s.secret) == defaultSecret }

// TTL returns the lifetime given to new tokens.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign creates a signed JWT for the given user.
func (s *Signer) Sign(userID, username string) (string, error) {
	now := s.now()
	claims := Claims{
		Version:  ClaimsVersion,
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token string and returns the claims.
// Signature, expiry and the claim shape are all checked here; callers never
// see a partially populated payload.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if err := checkPayloadFields(tokenStr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: %w iat", ErrInvalidToken, ErrMissingClaim)
	}
	if claims.Version != ClaimsVersion {
		return nil, fmt.Errorf("%w: %w %d", ErrInvalidToken, ErrClaimsVersion, claims.Version)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, fmt.Errorf("%w: %w uid", ErrInvalidToken, ErrMissingClaim)
	}
	if strings.TrimSpace(claims.Username) == "" {
		return nil, fmt.Errorf("%w: %w username", ErrInvalidToken, ErrMissingClaim)
	}
	return claims, nil
}

// strictPayload lists every claim an access token may carry.
type strictPayload struct {
	Version  int    `json:"ver"`
	UserID   string `json:"uid"`
	Username string `json:"username"`
	IssuedAt int64  `json:"iat"`
	Expires  int64  `json:"exp"`
}

func checkPayloadFields(tokenStr string) error {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var p strictPayload
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownClaim, err)
	}
	return nil
}
