package devconnect

import (
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/goliatone/go-devconnect/middleware/jwtware"
)

const (
	// DefaultTokenExpiration in hours
	DefaultTokenExpiration = 100
	// DefaultKeyID is set in the token header when none is configured
	DefaultKeyID = "default"
)

var supportedSigningMethods = map[string]jwt.SigningMethod{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// TokenService issues and validates bearer tokens with a single secret
type TokenService struct {
	signingKey []byte
	method     jwt.SigningMethod
	keyID      string
	ttl        time.Duration
	issuer     string
	keyfunc    jwt.Keyfunc
	now        func() time.Time
	logger     Logger
}

var _ jwtware.TokenValidator = (*TokenService)(nil)

type TokenServiceOption func(*TokenService)

// WithClock replaces time.Now, used for issue and expiry checks
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService from cfg. The secret is copied so
// later changes to cfg do not affect issued or validated tokens.
func NewTokenService(cfg Config, opts ...TokenServiceOption) (*TokenService, error) {
	if cfg.GetSigningKey() == "" {
		return nil, oops.Code("CONFIG_INVALID").In("token").Errorf("signing key is required")
	}

	alg := cfg.GetSigningMethod()
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	method, ok := supportedSigningMethods[alg]
	if !ok {
		return nil, oops.Code("CONFIG_INVALID").In("token").With("alg", alg).Errorf("unsupported signing method: %s", alg)
	}

	expiration := cfg.GetTokenExpiration()
	if expiration <= 0 {
		expiration = DefaultTokenExpiration
	}

	keyID := cfg.GetKeyID()
	if keyID == "" {
		keyID = DefaultKeyID
	}

	key := []byte(cfg.GetSigningKey())

	ts := &TokenService{
		signingKey: key,
		method:     method,
		keyID:      keyID,
		ttl:        time.Duration(expiration) * time.Hour,
		issuer:     cfg.GetIssuer(),
		now:        time.Now,
		logger:     defLogger{},
	}

	ts.keyfunc = keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		keyID: keyfunc.NewGivenCustom(key, keyfunc.GivenKeyOptions{
			Algorithm: method.Alg(),
		}),
	}).Keyfunc

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// TTL returns the fixed token lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue creates a signed token for accountID
func (ts *TokenService) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", oops.Code(CodeCredentialProcessing).In("token").Errorf("account id is required")
	}

	now := ts.now()
	claims := &Claims{
		User: ClaimsUser{ID: accountID},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	return ts.SignClaims(claims)
}

// SignClaims signs claims with the configured secret and key id
func (ts *TokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", oops.Code(CodeCredentialProcessing).In("token").Errorf("claims must not be nil")
	}

	token := jwt.NewWithClaims(ts.method, claims)
	token.Header["kid"] = ts.keyID

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", oops.Code(CodeCredentialProcessing).In("token").Wrapf(err, "failed to sign token")
	}

	return signed, nil
}

// Validate implements jwtware.TokenValidator
func (ts *TokenService) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := ts.ParseClaims(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseClaims verifies signature, algorithm, expiry and payload. Every
// failure is reported as ErrInvalidToken; the cause is only kept wrapped.
func (ts *TokenService) ParseClaims(raw string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, ts.keyfunc, parserOptions...)
	if err != nil {
		ts.logger.Debug("token validation failed", "expired", errors.Is(err, jwt.ErrTokenExpired), "error", err)
		return nil, invalidToken(err)
	}

	if !token.Valid {
		return nil, invalidToken(errors.New("token not valid"))
	}

	if claims.AccountID() == "" {
		ts.logger.Debug("token validation failed", "error", "missing user id")
		return nil, invalidToken(errors.New("missing user id"))
	}

	return claims, nil
}

func invalidToken(cause error) error {
	return oops.
		Code(CodeInvalidToken).
		In("token").
		Wrap(fmt.Errorf("%w: %w", ErrInvalidToken, cause))
}
