package devconnect_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	devconnect "github.com/goliatone/go-devconnect"
)

// MockActivitySink implements devconnect.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event devconnect.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockAuthenticator implements devconnect.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, req devconnect.RegisterAccountMessage) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) CurrentAccount(ctx context.Context) (*devconnect.Account, error) {
	args := m.Called(ctx)
	if account, ok := args.Get(0).(*devconnect.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPasswordHasher implements devconnect.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) HashContext(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Compare(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// capturingLogger keeps every entry as msg plus key/value pairs
type capturingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *capturingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *capturingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *capturingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *capturingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func eventOfType(eventType devconnect.ActivityEventType) any {
	return mock.MatchedBy(func(e devconnect.ActivityEvent) bool {
		return e.EventType == eventType
	})
}
