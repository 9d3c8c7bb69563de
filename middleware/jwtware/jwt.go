package jwtware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const DefaultTokenHeader = "x-auth-token"

var (
	defaultTokenLookup = "header:" + DefaultTokenHeader

	// ErrMissingToken no token was found in the configured header
	ErrMissingToken = errors.New("Missing token, denied authorization.")
	// ErrInvalidToken the token failed validation. Expired, forged and
	// malformed tokens are intentionally indistinguishable.
	ErrInvalidToken = errors.New("Invalid token.")
)

// TokenValidator interface for validating tokens without import cycles
// This mirrors the TokenService.Validate method from the devconnect package
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles
type AuthClaims interface {
	AccountID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// ValidationListener is invoked after a token has been validated.
type ValidationListener func(c *fiber.Ctx, claims AuthClaims) error

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	ContextKey     string
	// TokenLookup is "header:<name>". Only header lookups are accepted.
	TokenLookup string
	// AuthScheme optional prefix, e.g. "Bearer". Empty means the raw header value.
	AuthScheme string
	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// ContextEnricher propagates claims to the request context.Context
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context

	// ValidationListeners run after validation succeeds. An error rejects
	// the request as an invalid token.
	ValidationListeners []ValidationListener
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		claims, err := cfg.Authorize(c)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return cfg.SuccessHandler(c)
	}
}

// Authorize is the gate decision for one request: the validated claims, or
// ErrMissingToken / ErrInvalidToken. It does not write to the response.
func (cfg Config) Authorize(c *fiber.Ctx) (AuthClaims, error) {
	raw, err := ExtractRawToken(c, cfg.getExtractors())
	if err != nil {
		return nil, err
	}

	claims, err := cfg.TokenValidator.Validate(raw)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims == nil {
		return nil, ErrInvalidToken
	}

	if err := cfg.runValidationListeners(c, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}

func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	err := ErrMissingToken

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			msg := ErrInvalidToken.Error()
			if errors.Is(err, ErrMissingToken) {
				msg = ErrMissingToken.Error()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"errors": []fiber.Map{{"msg": msg}},
			})
		}
	}

	if cfg.TokenValidator == nil {
		panic("DEVCONNECT: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if len(cfg.getExtractors()) == 0 {
		panic("DEVCONNECT: JWT middleware configuration: TokenLookup must name at least one header.")
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(c *fiber.Ctx, claims AuthClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(c, claims); err != nil {
			return err
		}
	}
	return nil
}

// GetExtractors parses "header:x-auth-token,header:Authorization".
// Cookie, query and param sources are not supported: tokens travel in headers only.
func GetExtractors(tokenLookup string, authScheme string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch source {
		case "header":
			if name != "" {
				extractors = append(extractors, jwtFromHeader(name, strings.TrimSpace(authScheme)))
			}
		default:
			panic(fmt.Sprintf("DEVCONNECT: JWT middleware configuration: unsupported token source %q", source))
		}
	}

	return extractors
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := strings.TrimSpace(c.Get(header))
		if a == "" {
			return "", ErrMissingToken
		}

		if authScheme == "" {
			return a, nil
		}

		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrInvalidToken
	}
}
