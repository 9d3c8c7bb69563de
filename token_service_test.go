package devconnect_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	devconnect "github.com/goliatone/go-devconnect"
	"github.com/goliatone/go-devconnect/middleware/jwtware"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func newTokenService(t *testing.T, cfg *testConfig, now *time.Time) *devconnect.TokenService {
	t.Helper()
	ts, err := devconnect.NewTokenService(cfg, devconnect.WithClock(fixedClock(now)))
	require.NoError(t, err)
	return ts
}

func decodeSegment(t *testing.T, segment string) map[string]any {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNewTokenService(t *testing.T) {
	t.Run("requires signing key", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.SigningKey = ""
		_, err := devconnect.NewTokenService(cfg)
		assert.Error(t, err)
	})

	t.Run("rejects asymmetric methods", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.SigningMethod = "RS256"
		_, err := devconnect.NewTokenService(cfg)
		assert.Error(t, err)
	})

	t.Run("defaults ttl to 100 hours", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.TokenExpiration = 0
		ts, err := devconnect.NewTokenService(cfg)
		require.NoError(t, err)
		assert.Equal(t, 100*time.Hour, ts.TTL())
	})
}

func TestTokenService_Issue(t *testing.T) {
	now := epoch
	ts := newTokenService(t, newTestConfig(), &now)

	token, err := ts.Issue("acc-123")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	header := decodeSegment(t, parts[0])
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "default", header["kid"])

	payload := decodeSegment(t, parts[1])
	assert.Equal(t, map[string]any{"id": "acc-123"}, payload["user"])
	assert.EqualValues(t, epoch.Unix(), payload["iat"])
	assert.EqualValues(t, epoch.Add(100*time.Hour).Unix(), payload["exp"])
	assert.NotContains(t, payload, "password")

	claims, err := ts.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", claims.AccountID())
	assert.Equal(t, epoch, claims.IssuedAt().UTC())
	assert.Equal(t, epoch.Add(100*time.Hour), claims.Expires().UTC())

	_, err = ts.Issue("")
	assert.Error(t, err)
}

func TestTokenService_Expiry(t *testing.T) {
	now := epoch
	ts := newTokenService(t, newTestConfig(), &now)

	token, err := ts.Issue("acc-123")
	require.NoError(t, err)

	now = epoch.Add(ts.TTL() - time.Second)
	_, err = ts.Validate(token)
	assert.NoError(t, err)

	now = epoch.Add(ts.TTL() + time.Second)
	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	assert.ErrorIs(t, err, jwtware.ErrInvalidToken)
	assert.Equal(t, devconnect.CodeInvalidToken, devconnect.ErrorCode(err))
}

func TestTokenService_RejectsTampering(t *testing.T) {
	now := epoch
	ts := newTokenService(t, newTestConfig(), &now)

	token, err := ts.Issue("acc-123")
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	payload := decodeSegment(t, parts[1])
	payload["user"] = map[string]any{"id": "acc-999"}
	forged, err := json.Marshal(payload)
	require.NoError(t, err)

	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString(forged) + "." + parts[2]
	_, err = ts.Validate(tampered)
	assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
}

func TestTokenService_DistinctSecrets(t *testing.T) {
	now := epoch
	a := newTokenService(t, newTestConfig(), &now)

	other := newTestConfig()
	other.SigningKey = "another-secret"
	b := newTokenService(t, other, &now)

	token, err := a.Issue("acc-123")
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.ErrorIs(t, err, devconnect.ErrInvalidToken)

	_, err = a.Validate(token)
	assert.NoError(t, err)
}

func TestTokenService_RejectsWrongAlgAndKid(t *testing.T) {
	now := epoch
	cfg := newTestConfig()
	ts := newTokenService(t, cfg, &now)

	claims := jwt.MapClaims{
		"user": map[string]any{"id": "acc-123"},
		"iat":  epoch.Unix(),
		"exp":  epoch.Add(time.Hour).Unix(),
	}

	t.Run("different hmac size", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
		token.Header["kid"] = "default"
		raw, err := token.SignedString([]byte(cfg.SigningKey))
		require.NoError(t, err)

		_, err = ts.Validate(raw)
		assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	})

	t.Run("unknown kid", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token.Header["kid"] = "rotated"
		raw, err := token.SignedString([]byte(cfg.SigningKey))
		require.NoError(t, err)

		_, err = ts.Validate(raw)
		assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Validate(raw)
		assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user": map[string]any{"id": "acc-123"},
		})
		token.Header["kid"] = "default"
		raw, err := token.SignedString([]byte(cfg.SigningKey))
		require.NoError(t, err)

		_, err = ts.Validate(raw)
		assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iat": epoch.Unix(),
			"exp": epoch.Add(time.Hour).Unix(),
		})
		token.Header["kid"] = "default"
		raw, err := token.SignedString([]byte(cfg.SigningKey))
		require.NoError(t, err)

		_, err = ts.Validate(raw)
		assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ts.Validate("not-a-token")
		assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
	})
}

func TestTokenService_Issuer(t *testing.T) {
	now := epoch
	cfg := newTestConfig()
	cfg.Issuer = "devconnect"
	ts := newTokenService(t, cfg, &now)

	token, err := ts.Issue("acc-123")
	require.NoError(t, err)

	claims, err := ts.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "devconnect", claims.Issuer)

	other := newTestConfig()
	other.Issuer = "someone-else"
	_, err = newTokenService(t, other, &now).Validate(token)
	assert.ErrorIs(t, err, devconnect.ErrInvalidToken)
}
