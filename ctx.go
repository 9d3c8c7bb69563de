package devconnect

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-devconnect/middleware/jwtware"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims jwtware.AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (jwtware.AuthClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(claimsCtxKey).(jwtware.AuthClaims)
	return raw, ok && raw != nil
}

// AccountIDFromContext returns the authenticated account id
func AccountIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok || claims.AccountID() == "" {
		return "", false
	}
	return claims.AccountID(), true
}

// GetRouterClaims extracts the AuthClaims from the fiber locals
func GetRouterClaims(c *fiber.Ctx, key string) (jwtware.AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(jwtware.AuthClaims)
	return claims, ok
}
