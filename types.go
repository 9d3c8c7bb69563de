package devconnect

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetKeyID() string
	GetContextKey() string
	GetTokenHeader() string
	GetTokenExpiration() int
	GetIssuer() string
	GetPasswordCost() int
	GetDeterministicIDs() bool
}

// PasswordHasher hashes and compares passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	HashContext(ctx context.Context, password string) (string, error)
	Compare(password, hash string) error
}

// Authenticator holds the credential flows exposed to transports
type Authenticator interface {
	Register(ctx context.Context, req RegisterAccountMessage) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	CurrentAccount(ctx context.Context) (*Account, error)
}

// NopLogger discards every entry
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] DEVCONNECT " + format(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] DEVCONNECT " + format(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] DEVCONNECT " + format(msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] DEVCONNECT " + format(msg, args...))
}

// format renders key/value pairs after the message, logfmt style.
func format(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	b.WriteString("\n")
	return b.String()
}
