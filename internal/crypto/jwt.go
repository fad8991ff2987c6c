package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed covers tokens that fail to parse or whose
	// signature does not verify.
	ErrTokenMalformed = errors.New("malformed or forged token")
	// ErrTokenExpired covers tokens with a valid signature whose expiry
	// has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents the JWT claims for TaskDeck authentication.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// TokenCodec issues and verifies signed, time-bounded bearer tokens.
// The signing secret is injected once at construction and never mutated;
// tokens signed under a different key fail verification.
type TokenCodec struct {
	secret []byte
	expiry time.Duration
}

// NewTokenCodec creates a TokenCodec with the given signing secret and
// token lifetime.
func NewTokenCodec(secret string, expiry time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), expiry: expiry}
}

// Issue creates a signed HS256 token for the given account.
func (c *TokenCodec) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskdeck",
			Audience:  jwt.ClaimStrings{"taskdeck-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token string and returns the embedded
// account ID. Signature integrity is checked before expiry: a forged or
// unparsable token yields ErrTokenMalformed, a genuine but stale one
// ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return c.secret, nil
	}, jwt.WithIssuer("taskdeck"), jwt.WithAudience("taskdeck-api"))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenMalformed
	}

	if !token.Valid {
		return 0, ErrTokenMalformed
	}

	return claims.UserID, nil
}
