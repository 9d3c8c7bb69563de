package devconnect

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-devconnect/persistence"
)

// Accounts is the credential store. Email is the identifier column, so
// GetByIdentifier resolves either an email or an account id.
type Accounts interface {
	repository.Repository[*Account]

	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

type AccountsOption func(*accounts)

// WithAccountsClock overrides the clock used for timestamps
func WithAccountsClock(now func() time.Time) AccountsOption {
	return func(a *accounts) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}
	return repoAccounts
}

// FindByEmail returns (nil, nil) when no account uses email
func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record, err := a.GetByIdentifierTx(ctx, tx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storeError(err, "find account by email")
	}
	return record, nil
}

// FindByID returns (nil, nil) when the account does not exist
func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record, err := a.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storeError(err, "find account by id")
	}
	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx inserts record. A unique violation on email is reported as
// ErrDuplicateAccount.
func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	if record == nil {
		return nil, oops.Code(CodeStoreUnavailable).In("accounts").Errorf("nil account")
	}

	a.prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, oops.Code(CodeDuplicateAccount).
				In("accounts").
				Wrap(ErrDuplicateAccount)
		}
		return nil, storeError(err, "insert account")
	}

	return created, nil
}

// DeleteByIDTx removes the account. Deleting a missing account is not an error.
func (a *accounts) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if err := a.DeleteWhereTx(ctx, tx, repository.DeleteByID(id.String())); err != nil {
		return storeError(err, "delete account")
	}
	return nil
}

func (a *accounts) prepareAccountDefaults(record *Account) {
	now := a.now().UTC()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}

func storeError(err error, op string) error {
	return oops.Code(CodeStoreUnavailable).In("store").With("operation", op).Wrapf(err, "%s", op)
}
