// Package auth issues and verifies session tokens and decides who may act on
// which resource.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 360000 * time.Second

var (
	// ErrInvalidToken is returned for absent, malformed or badly signed tokens.
	ErrInvalidToken = errors.New("token is not valid")
	// ErrExpired is returned for well-formed tokens past their expiry.
	ErrExpired = errors.New("token has expired")
	// ErrEmptySecret is returned when a codec is built without a signing key.
	ErrEmptySecret = errors.New("token secret must not be empty")
)

// SessionClaim is the verified identity carried by a token.
type SessionClaim struct {
	UserID    uint
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenUser struct {
	ID uint `json:"id"`
}

// tokenClaims is the wire format: {"user":{"id":N}} plus registered claims.
type tokenClaims struct {
	User tokenUser `json:"user"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 session tokens with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec builds a Codec. A zero ttl falls back to DefaultTokenTTL.
func NewCodec(secret string, ttl time.Duration, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	c := &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue returns a signed token for userID.
func (c *Codec) Issue(userID uint) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("issue token: user id must be set")
	}
	now := c.now()
	claims := tokenClaims{
		User: tokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its claim.
func (c *Codec) Verify(raw string) (SessionClaim, error) {
	if raw == "" {
		return SessionClaim{}, ErrInvalidToken
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaim{}, ErrExpired
		}
		return SessionClaim{}, ErrInvalidToken
	}
	if !token.Valid || claims.User.ID == 0 {
		return SessionClaim{}, ErrInvalidToken
	}

	out := SessionClaim{
		UserID:    claims.User.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
