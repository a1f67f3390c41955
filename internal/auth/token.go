package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of issued tokens. There is no refresh or
// revocation; rotating the secret invalidates everything outstanding.
const TokenTTL = 24 * time.Hour

const minSecretBytes = 32

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// Claims is the payload carried by issued tokens: subject, roles, and the
// issued-at/expiry pair.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Codec issues and parses HS256-signed bearer tokens against a process-wide
// secret. Both operations are pure and safe for concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) (*Codec, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", minSecretBytes, len(secret))
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue builds a signed token for subject carrying roles, expiring TokenTTL
// from now.
func (c *Codec) Issue(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the claims. Failures
// collapse to one of ErrTokenMalformed, ErrTokenSignature, ErrTokenExpired.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
