package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a session token when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")

	// ErrSubjectNotFound reports that a token's user no longer exists.
	ErrSubjectNotFound = errors.New("token subject not found")
)

// SessionUser is the identity carried inside a session token.
type SessionUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// SessionClaims are the claims of a signed session token.
type SessionClaims struct {
	User SessionUser `json:"user"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and verifies HS256 session tokens.
type JWTAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance.
// The issuer is also used as the audience of issued tokens.
func NewJWTAuthenticator(secret, issuer string, ttl time.Duration) *JWTAuthenticator {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &JWTAuthenticator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: issuer,
		ttl:      ttl,
		now:      time.Now,
	}
}

// IssueSession signs a session token for the given user id and role.
func (a *JWTAuthenticator) IssueSession(userID, role string) (string, error) {
	now := a.now()
	claims := SessionClaims{
		User: SessionUser{ID: userID, Role: role},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return tokenStr, nil
}

// VerifySession validates the signature, algorithm, issuer, audience and expiry
// of a session token and returns its claims.
func (a *JWTAuthenticator) VerifySession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.audience),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.User.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateRandomToken returns 32 random bytes encoded as 64 hex characters.
// It is used for single-use email verification and password reset tokens.
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
