package devconnect

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-devconnect/middleware/jwtware"
)

// ClaimsUser is the identity section of the token payload
type ClaimsUser struct {
	ID string `json:"id"`
}

// Claims is the signed token payload: {user: {id}} plus registered claims
type Claims struct {
	User ClaimsUser `json:"user"`
	jwt.RegisteredClaims
}

// Verify interface compliance
var _ jwtware.AuthClaims = (*Claims)(nil)

// AccountID returns the account the token was issued for
func (c *Claims) AccountID() string {
	return c.User.ID
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
