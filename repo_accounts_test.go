package devconnect_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
)

func TestAccountsRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := epoch
	repo := devconnect.NewAccountsRepository(db, devconnect.WithAccountsClock(fixedClock(&now)))

	created, err := repo.Create(ctx, &devconnect.Account{
		Name:         "Ada",
		Email:        "ada@x.io",
		PasswordHash: "digest",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	require.NotNil(t, created.CreatedAt)
	assert.True(t, epoch.Equal(*created.CreatedAt))

	found, err := repo.FindByEmail(ctx, "ada@x.io")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "digest", found.PasswordHash)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ada@x.io", byID.Email)

	missing, err := repo.FindByEmail(ctx, "bob@x.io")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountsRepositoryGetByIdentifier(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := devconnect.NewAccountsRepository(db)

	assert.Equal(t, "email", repo.Handlers().GetIdentifier())

	created, err := repo.Create(ctx, &devconnect.Account{Name: "Ada", Email: "ada@x.io", PasswordHash: "digest"})
	require.NoError(t, err)

	byEmail, err := repo.GetByIdentifier(ctx, "ada@x.io")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.GetByIdentifier(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "ada@x.io", byID.Email)

	_, err = repo.GetByIdentifier(ctx, "bob@x.io")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))

	records, total, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID, records[0].ID)
}

func TestAccountsRepositoryUniqueEmail(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := devconnect.NewAccountsRepository(db)

	_, err := repo.Create(ctx, &devconnect.Account{Name: "Ada", Email: "ada@x.io", PasswordHash: "a"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &devconnect.Account{Name: "Other Ada", Email: "ada@x.io", PasswordHash: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, devconnect.ErrDuplicateAccount)
	assert.Equal(t, devconnect.CodeDuplicateAccount, devconnect.ErrorCode(err))

	// emails compare exactly
	_, err = repo.Create(ctx, &devconnect.Account{Name: "ADA", Email: "ADA@x.io", PasswordHash: "c"})
	assert.NoError(t, err)
}

func TestAccountsRepositoryDeleteByIDTx(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	manager := devconnect.NewRepositoryManager(db)
	require.NoError(t, manager.Validate())

	account, err := manager.Accounts().Create(ctx, &devconnect.Account{Name: "Ada", Email: "ada@x.io", PasswordHash: "a"})
	require.NoError(t, err)

	err = manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return manager.Accounts().DeleteByIDTx(ctx, tx, account.ID)
	})
	require.NoError(t, err)

	found, err := manager.Accounts().FindByID(ctx, account.ID)
	assert.NoError(t, err)
	assert.Nil(t, found)

	// already gone
	err = manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return manager.Accounts().DeleteByIDTx(ctx, tx, account.ID)
	})
	assert.NoError(t, err)
}

func TestRepositoryManagerRunInTxCancelled(t *testing.T) {
	db := openTestDB(t)
	manager := devconnect.NewRepositoryManager(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := manager.RunInTx(ctx, nil, func(context.Context, bun.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestAccountsRepositoryStoreFailure(t *testing.T) {
	db := openTestDB(t)
	repo := devconnect.NewAccountsRepository(db)
	require.NoError(t, db.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := repo.FindByEmail(ctx, "ada@x.io")
	require.Error(t, err)
	assert.Equal(t, devconnect.CodeStoreUnavailable, devconnect.ErrorCode(err))
}
