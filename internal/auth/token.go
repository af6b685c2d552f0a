package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authgate/authgate/internal/apperr"
)

// MinSecretLength is the minimal HMAC key size in bytes.
const MinSecretLength = 32

// Claims is the JWT payload. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
	UserID      uint64   `json:"uid"`
	Authorities []string `json:"auth,omitempty"`
}

// TokenCodec signs and validates tokens with a process wide secret.
// It is safe for concurrent use; nothing is mutated after construction.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenCodec creates a codec. ttl must be positive.
func NewTokenCodec(secret string, ttl time.Duration, issuer string) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	if ttl <= 0 {
		return nil, apperr.New(apperr.KindInternal, "token ttl must be positive")
	}

	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue returns a signed token for the user valid from now until now + ttl.
func (c *TokenCodec) Issue(userID uint64, username string, authorities []string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID:      userID,
		Authorities: authorities,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry against now.
// A token whose expiry is at or before now is rejected.
func (c *TokenCodec) Validate(tokenString string, now time.Time) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, errors.Join(ErrInvalidToken, err), ErrInvalidToken.Msg)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
