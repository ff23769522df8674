package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims accepted by the oracle API. The subject is the
// caller identity handed to the service.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenValidator checks HS256 bearer tokens against a shared secret.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator returns a validator for secret, or nil when secret is
// empty. A nil validator rejects every token.
func NewTokenValidator(secret string) *TokenValidator {
	if secret == "" {
		return nil
	}
	return &TokenValidator{secret: []byte(secret)}
}

// Validate parses tokenStr and returns its claims.
func (v *TokenValidator) Validate(tokenStr string) (*Claims, error) {
	if v == nil {
		return nil, errors.New("validator uninitialized")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SignToken issues an HS256 token for subject that expires after ttl.
// A zero ttl issues a token without expiry.
func SignToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   "prophecy-oracle",
	}}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type callerKey struct{}

// WithCaller returns a context carrying the authenticated caller.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the authenticated caller stored in ctx.
func CallerFrom(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(callerKey{}).(string)
	return c, ok
}

// RequireCaller rejects requests without a valid bearer token and stores the
// token subject as the caller. A nil validator fails closed.
func RequireCaller(validator *TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "Missing Authorization header")
				return
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" {
				writeUnauthorized(w, r, "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if validator == nil {
				writeUnauthorized(w, r, "Authentication not configured")
				return
			}

			claims, err := validator.Validate(tokenStr)
			if err != nil {
				writeUnauthorized(w, r, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				writeUnauthorized(w, r, "Token subject is required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Subject)))
		})
	}
}
