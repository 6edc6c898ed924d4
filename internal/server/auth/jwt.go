// Package auth mints and validates the HS256 access tokens of the portal.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the identity of the caller. Subject is the user id, ID
// (jti) names this token for revocation and SessionID ties it to a login.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	SessionID string `json:"sid"`
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// TTL is the remaining lifetime of the token relative to now.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Issuer signs and verifies access tokens with a shared secret.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(secret []byte, validity time.Duration) *Issuer {
	return &Issuer{secret: secret, validity: validity, now: time.Now}
}

// Issue signs a token for the user within sessionID.
func (i *Issuer) Issue(userID, email, sessionID string) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		Email:     email,
		SessionID: sessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates tokenString. Expired tokens yield common.ErrTokenExpired;
// every other failure yields common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Validity is the lifetime given to new tokens.
func (i *Issuer) Validity() time.Duration { return i.validity }
