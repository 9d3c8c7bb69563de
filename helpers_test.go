package devconnect_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
	"github.com/goliatone/go-devconnect/persistence"
)

type testConfig struct {
	SigningKey       string
	SigningMethod    string
	KeyID            string
	ContextKey       string
	TokenHeader      string
	TokenExpiration  int
	Issuer           string
	PasswordCost     int
	DeterministicIDs bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		SigningKey:      "test-secret",
		SigningMethod:   "HS256",
		ContextKey:      "user",
		TokenHeader:     "x-auth-token",
		TokenExpiration: 100,
		PasswordCost:    4,
	}
}

func (c *testConfig) GetSigningKey() string     { return c.SigningKey }
func (c *testConfig) GetSigningMethod() string  { return c.SigningMethod }
func (c *testConfig) GetKeyID() string          { return c.KeyID }
func (c *testConfig) GetContextKey() string     { return c.ContextKey }
func (c *testConfig) GetTokenHeader() string    { return c.TokenHeader }
func (c *testConfig) GetTokenExpiration() int   { return c.TokenExpiration }
func (c *testConfig) GetIssuer() string         { return c.Issuer }
func (c *testConfig) GetPasswordCost() int      { return c.PasswordCost }
func (c *testConfig) GetDeterministicIDs() bool { return c.DeterministicIDs }

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	persistence.RegisterModel((*devconnect.Account)(nil))
	client, err := persistence.Open(ctx, dsn, persistence.WithRetries(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	migrations, err := devconnect.MigrationsFor(client.Dialect())
	require.NoError(t, err)
	require.NoError(t, persistence.Migrate(ctx, client, migrations))
	return client.Bun()
}
