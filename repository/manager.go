package repository

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
	"github.com/goliatone/go-devconnect/persistence"
	"github.com/goliatone/go-devconnect/profile"
)

// Manager exposes the account store together with the profile store
type Manager struct {
	devconnect.RepositoryManager
	profiles *ProfileRepository
}

func NewManager(db *bun.DB, opts ...devconnect.AccountsOption) *Manager {
	return &Manager{
		RepositoryManager: devconnect.NewRepositoryManager(db, opts...),
		profiles:          NewProfileRepository(db),
	}
}

func (m *Manager) Validate() error {
	if err := m.RepositoryManager.Validate(); err != nil {
		return err
	}

	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	return nil
}

func (m *Manager) Profiles() profile.Repository {
	return m.profiles
}

// Models lists every model the service registers with Bun
func Models() []any {
	return []any{
		(*devconnect.Account)(nil),
		(*ProfileModel)(nil),
	}
}

// Open registers Models and connects to dsn
func Open(ctx context.Context, dsn string, opts ...persistence.Option) (*persistence.Client, error) {
	persistence.RegisterModel(Models()...)
	return persistence.Open(ctx, dsn, opts...)
}

// Migrate applies the schema migrations written for the client's dialect
func Migrate(ctx context.Context, client *persistence.Client) error {
	migrations, err := devconnect.MigrationsFor(client.Dialect())
	if err != nil {
		return err
	}
	return persistence.Migrate(ctx, client, migrations)
}
