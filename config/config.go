// Package config loads the service configuration from an optional YAML
// file, an optional .env file and DEVCONNECT_* environment variables, in
// that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/viper"

	devconnect "github.com/goliatone/go-devconnect"
)

const EnvPrefix = "DEVCONNECT"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Github      GithubConfig      `mapstructure:"github"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Debug   bool   `mapstructure:"debug"`
}

type PersistenceConfig struct {
	DSN            string `mapstructure:"dsn"`
	ConnectRetries uint64 `mapstructure:"connect_retries"`
	Debug          bool   `mapstructure:"debug"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GithubConfig is only read by the repository listing feature, which this
// service does not serve.
type GithubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// AuthConfig implements devconnect.Config
type AuthConfig struct {
	SigningKey       string `mapstructure:"signing_key"`
	SigningMethod    string `mapstructure:"signing_method"`
	KeyID            string `mapstructure:"key_id"`
	ContextKey       string `mapstructure:"context_key"`
	TokenHeader      string `mapstructure:"token_header"`
	TokenExpiration  int    `mapstructure:"token_expiration"`
	Issuer           string `mapstructure:"issuer"`
	PasswordCost     int    `mapstructure:"password_cost"`
	DeterministicIDs bool   `mapstructure:"deterministic_ids"`
}

var _ devconnect.Config = AuthConfig{}

func (c AuthConfig) GetSigningKey() string { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string { return c.SigningMethod }
func (c AuthConfig) GetKeyID() string { return c.KeyID }
func (c AuthConfig) GetContextKey() string { return c.ContextKey }
func (c AuthConfig) GetTokenHeader() string { return c.TokenHeader }
func (c AuthConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c AuthConfig) GetIssuer() string { return c.Issuer }
func (c AuthConfig) GetPasswordCost() int { return c.PasswordCost }
func (c AuthConfig) GetDeterministicIDs() bool { return c.DeterministicIDs }

var defaults = map[string]any{
	"server.address":              ":5000",
	"server.debug":                false,
	"persistence.dsn":             "file:devconnect.db?cache=shared",
	"persistence.connect_retries": 5,
	"persistence.debug":           false,
	"auth.signing_key":            "",
	"auth.signing_method":         "HS256",
	"auth.key_id":                 devconnect.DefaultKeyID,
	"auth.context_key":            "user",
	"auth.token_header":           "x-auth-token",
	"auth.token_expiration":       devconnect.DefaultTokenExpiration,
	"auth.issuer":                 "",
	"auth.password_cost":          devconnect.DefaultPasswordCost,
	"auth.deterministic_ids":      false,
	"logger.level":                "info",
	"logger.format":               "console",
	"github.client_id":            "",
	"github.client_secret":        "",
}

type loaderOptions struct {
	configFile string
	envFile    string
}

type Option func(*loaderOptions)

// WithConfigFile sets an explicit YAML config file path.
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// Load resolves the configuration. A missing .env file is not an error; a
// missing explicit config file is.
func Load(opts ...Option) (*Config, error) {
	lo := loaderOptions{envFile: ".env"}
	for _, opt := range opts {
		if opt != nil {
			opt(&lo)
		}
	}

	if lo.envFile != "" && exists(lo.envFile) {
		if err := godotenv.Load(lo.envFile); err != nil {
			return nil, oops.In("config").With("env_file", lo.envFile).Wrapf(err, "load env file")
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if lo.configFile != "" {
		v.SetConfigFile(lo.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, oops.In("config").With("config_file", lo.configFile).Wrapf(err, "read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, oops.In("config").Wrapf(err, "unmarshal config")
	}

	return cfg, nil
}

// Validate checks the values the service cannot start without
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		problems = append(problems, "auth.signing_key is required")
	}

	if strings.TrimSpace(c.Persistence.DSN) == "" {
		problems = append(problems, "persistence.dsn is required")
	}

	switch c.Auth.SigningMethod {
	case "HS256", "HS384", "HS512":
	default:
		problems = append(problems, fmt.Sprintf("auth.signing_method %q is not supported", c.Auth.SigningMethod))
	}

	if c.Auth.TokenExpiration <= 0 {
		problems = append(problems, "auth.token_expiration must be positive")
	}

	if strings.TrimSpace(c.Auth.TokenHeader) == "" {
		problems = append(problems, "auth.token_header is required")
	}

	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").In("config").With("problems", problems).Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
