// Package jwtware gates fiber routes behind a bearer token. The token is
// read from the Authorization header, validated by the injected
// TokenValidator, and the resulting claims are stored in the request locals
// for downstream handlers.
package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultAuthScheme = "Bearer"
	defaultContextKey = "user"

	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the auth package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the auth package.
type AuthClaims interface {
	Subject() string
	UserID() string
	UserEmail() string
}

type Config struct {
	// Filter defines a function to skip the middleware
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after a token has been validated
	SuccessHandler fiber.Handler
	// ErrorHandler turns extraction or validation failures into a response
	ErrorHandler fiber.ErrorHandler
	// ContextKey is the locals key the claims are stored under
	ContextKey string
	// AuthScheme expected in the Authorization header
	AuthScheme string
	// TokenValidator is required for token validation
	TokenValidator TokenValidator
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		return cfg.SuccessHandler(c)
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Auth failed",
				"errors":  []string{},
			})
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = defaultContextKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = defaultAuthScheme
	}

	return cfg
}

// ExtractRawToken pulls the raw token out of an Authorization header value.
// Absent, empty, or differently shaped headers are rejected.
func ExtractRawToken(header, authScheme string) (string, error) {
	authScheme = strings.TrimSpace(authScheme)
	if authScheme == "" {
		return "", ErrJWTMissingOrMalformed
	}

	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) {
		token := strings.TrimSpace(header[l:])
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}

	return "", ErrJWTMissingOrMalformed
}

// ClaimsFromContext returns the claims a previous middleware stored under key
func ClaimsFromContext(c *fiber.Ctx, key string) (AuthClaims, bool) {
	claims, ok := c.Locals(key).(AuthClaims)
	return claims, ok
}
