package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope restricts what a signed token may be used for. A password reset token
// must never pass as a session and vice versa.
type Scope string

const (
	// ScopeSession marks tokens issued at login.
	ScopeSession Scope = "session"
	// ScopePasswordReset marks tokens mailed out for password resets.
	ScopePasswordReset Scope = "password_reset"
)

var (
	// ErrInvalidToken covers malformed input, signature mismatches and
	// scope violations.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims binds a user identity and scope to the standard expiry claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
	Scope  Scope `json:"scope"`
}

// TokenService issues and verifies HMAC-signed expiring tokens. The secret is
// process-wide configuration and never derivable from issued tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService builds a token service around the shared signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs a token binding the user id and scope with the given lifetime.
// The result is URL-safe and suitable for embedding in reset links.
func (s *TokenService) Issue(userID int64, scope Scope, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Scope:  scope,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature, expiry and scope, returning the embedded user
// id. Any malformed input yields ErrInvalidToken; it never panics.
func (s *TokenService) Verify(tokenString string, scope Scope) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}

	if !token.Valid || claims.Scope != scope || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
