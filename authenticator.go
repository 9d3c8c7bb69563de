package devconnect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

type Auther struct {
	repo          RepositoryManager
	hasher        PasswordHasher
	tokenService  *TokenService
	register      *RegisterAccountHandler
	logger        Logger
	activitySink  ActivitySink
	deterministic bool
	now           func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator. The password cost and the id
// strategy come from opts; tokens must be built from the same opts.
func NewAuthenticator(repo RepositoryManager, tokens *TokenService, opts Config) *Auther {
	hasher := NewBcryptHasher(opts.GetPasswordCost())
	return &Auther{
		repo:          repo,
		hasher:        hasher,
		tokenService:  tokens,
		register:      NewRegisterAccountHandler(repo, hasher),
		logger:        defLogger{},
		activitySink:  noopActivitySink{},
		deterministic: opts.GetDeterministicIDs(),
		now:           time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithHasher replaces the bcrypt hasher built from the config.
func (s *Auther) WithHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
		s.register = NewRegisterAccountHandler(s.repo, hasher)
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokenService
}

// Register creates the account and returns a token for it. No token is
// issued unless the account was persisted.
func (s *Auther) Register(ctx context.Context, req RegisterAccountMessage) (string, error) {
	if s.deterministic {
		req.UseHashid = true
	}

	account, err := s.register.Execute(ctx, req)
	if err != nil {
		s.logger.Warn("Register failed", "reason", failureReason(err))
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", failureReason(err), map[string]any{
			"email": req.Email,
		})
		return "", err
	}

	token, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		s.logger.Error("Register token issue error", "account_id", account.ID, "error", err)
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, account.ID.String(), failureReason(err), nil)
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventAccountRegistered, account.ID.String(), "", map[string]any{
		"email": account.Email,
	})

	return token, nil
}

// Login returns a token for the account matching email and password.
// Unknown emails and wrong passwords fail with the same error.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	msg := LoginMessage{Email: email, Password: password}
	if err := msg.Validate(); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", failureReason(err), map[string]any{
			"email": email,
		})
		return "", oops.Code(CodeValidation).In("login").Wrap(err)
	}

	account, err := s.repo.Accounts().FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Login find account error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", failureReason(err), map[string]any{
			"email": email,
		})
		return "", err
	}

	if account == nil {
		// keep timing close to the mismatch path
		_ = s.hasher.Compare(password, s.dummyDigest())
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", "unknown_email", map[string]any{
			"email": email,
		})
		return "", invalidCredentials(email)
	}

	if err := s.hasher.Compare(password, account.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Error("Login compare digest error", "account_id", account.ID, "error", err)
		}
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), "password_mismatch", map[string]any{
			"email": email,
		})
		return "", invalidCredentials(email)
	}

	token, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		s.logger.Error("Login token issue error", "account_id", account.ID, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), failureReason(err), nil)
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, account.ID.String(), "", map[string]any{
		"email": email,
	})

	return token, nil
}

// CurrentAccount loads the account whose id the auth gate put in ctx
func (s *Auther) CurrentAccount(ctx context.Context) (*Account, error) {
	accountID, ok := AccountIDFromContext(ctx)
	if !ok {
		return nil, oops.Code(CodeMissingToken).In("auth").Wrap(ErrMissingToken)
	}

	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).In("auth").With("account_id", accountID).Wrap(ErrInvalidToken)
	}

	account, err := s.repo.Accounts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, oops.Code(CodeNotFound).In("auth").With("account_id", accountID).Wrap(ErrAccountNotFound)
	}

	account.PasswordHash = ""
	return account, nil
}

// RecordTokenRejection emits auth.token.rejected for a request refused by the gate
func (s *Auther) RecordTokenRejection(ctx context.Context, err error) {
	reason := "invalid_token"
	if errors.Is(err, ErrMissingToken) {
		reason = "missing_token"
	}
	s.logger.Debug("Token rejected", "reason", reason, "error", err)
	s.emitAuthEvent(ctx, ActivityEventTokenRejected, "", reason, nil)
}

func (s *Auther) dummyDigest() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("devconnect-timing-equalizer")
		if err != nil {
			s.logger.Warn("dummy digest error", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, accountID, reason string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		AccountID:  accountID,
		Reason:     reason,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}

func invalidCredentials(email string) error {
	return oops.Code(CodeInvalidCredentials).
		In("login").
		With("email", email).
		Wrap(ErrInvalidCredentials)
}

// failureReason turns an error into a low cardinality label
func failureReason(err error) string {
	if code := ErrorCode(err); code != "" {
		return strings.ToLower(code)
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return "validation"
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}

	return "internal"
}
