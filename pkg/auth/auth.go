// Package auth issues and verifies HS256 JWTs and hashes passwords with
// bcrypt.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned by Verify for any token that fails signature,
// structure, or expiry checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Authenticator signs and verifies tokens with a shared HMAC secret.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

// New creates an Authenticator. ttl is the lifetime stamped into every
// generated token.
func New(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate signs a token carrying the custom claims plus iat and exp.
// Custom claims named iat or exp are ignored rather than allowed to
// override the timestamps.
func (a *Authenticator) Generate(custom map[string]string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	for key, value := range custom {
		if key == "iat" || key == "exp" {
			continue
		}
		claims[key] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its string
// claims. The iat and exp timestamps are not included.
func (a *Authenticator) Verify(tokenString string) (map[string]string, error) {
	token, err := jwt.Parse(tokenString,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := make(map[string]string)
	for key, value := range mapClaims {
		if key == "iat" || key == "exp" {
			continue
		}
		if s, isString := value.(string); isString {
			claims[key] = s
		} else {
			claims[key] = fmt.Sprint(value)
		}
	}
	return claims, nil
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
