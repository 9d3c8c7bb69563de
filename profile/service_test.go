package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	devconnect "github.com/goliatone/go-devconnect"
	"github.com/goliatone/go-devconnect/persistence"
	"github.com/goliatone/go-devconnect/profile"
	"github.com/goliatone/go-devconnect/repository"
)

type fixture struct {
	service *profile.Service
	manager *repository.Manager
	account *devconnect.Account
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	client, err := repository.Open(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared", persistence.WithRetries(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, repository.Migrate(ctx, client))

	manager := repository.NewManager(client.Bun())
	require.NoError(t, manager.Validate())

	account, err := manager.Accounts().Create(ctx, &devconnect.Account{
		Name:         "Ada",
		Email:        "ada@x.io",
		Avatar:       devconnect.GravatarURL("ada@x.io"),
		PasswordHash: "digest",
	})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := profile.NewService(manager.Profiles(), manager, profile.WithServiceClock(func() time.Time { return now }))

	claims := &devconnect.Claims{User: devconnect.ClaimsUser{ID: account.ID.String()}}
	return &fixture{
		service: service,
		manager: manager,
		account: account,
		ctx:     devconnect.WithClaimsContext(ctx, claims),
	}
}

func TestServiceUpsert(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Mine(f.ctx)
	assert.ErrorIs(t, err, profile.ErrNoProfile)

	p, err := f.service.Upsert(f.ctx, profile.UpsertRequest{
		Status:  "Developer",
		Skills:  "go, sql",
		Company: "Acme",
		Twitter: "https://twitter.com/ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "Developer", p.Status)
	assert.Equal(t, []string{"go", "sql"}, p.Skills)
	assert.Equal(t, "https://twitter.com/ada", p.Social.Twitter)
	require.NotNil(t, p.Owner)
	assert.Equal(t, "Ada", p.Owner.Name)
	assert.Equal(t, f.account.ID.String(), p.Owner.ID)

	updated, err := f.service.Upsert(f.ctx, profile.UpsertRequest{Status: "Senior Developer", Skills: "go"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Acme", updated.Company)
	assert.Equal(t, []string{"go"}, updated.Skills)
	assert.Empty(t, updated.Social.Twitter)

	_, err = f.service.Upsert(f.ctx, profile.UpsertRequest{})
	var verrs devconnect.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = f.service.Upsert(context.Background(), profile.UpsertRequest{Status: "x", Skills: "go"})
	assert.ErrorIs(t, err, devconnect.ErrMissingToken)
}

func TestServicePublicReads(t *testing.T) {
	f := newFixture(t)

	profiles, err := f.service.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = f.service.Upsert(f.ctx, profile.UpsertRequest{Status: "Developer", Skills: "go"})
	require.NoError(t, err)

	profiles, err = f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Ada", profiles[0].Owner.Name)

	p, err := f.service.ByAccount(context.Background(), f.account.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Developer", p.Status)

	_, err = f.service.ByAccount(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	_, err = f.service.ByAccount(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestServiceEntries(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddExperience(f.ctx, profile.ExperienceRequest{Title: "Engineer", Company: "Acme", From: "2020-01-01"})
	assert.ErrorIs(t, err, profile.ErrNoProfile)

	_, err = f.service.Upsert(f.ctx, profile.UpsertRequest{Status: "Developer", Skills: "go"})
	require.NoError(t, err)

	_, err = f.service.AddExperience(f.ctx, profile.ExperienceRequest{Title: "Engineer", Company: "Acme", From: "2020-01-01"})
	require.NoError(t, err)
	p, err := f.service.AddExperience(f.ctx, profile.ExperienceRequest{Title: "Lead", Company: "Initech", From: "2022-01-01", Current: true})
	require.NoError(t, err)
	require.Len(t, p.Experience, 2)
	assert.Equal(t, "Lead", p.Experience[0].Title)
	assert.NotEqual(t, p.Experience[0].ID, p.Experience[1].ID)

	p, err = f.service.AddEducation(f.ctx, profile.EducationRequest{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2015-09-01", To: "2019-06-01"})
	require.NoError(t, err)
	require.Len(t, p.Education, 1)
	require.NotNil(t, p.Education[0].To)

	stored, err := f.service.Mine(f.ctx)
	require.NoError(t, err)
	assert.Len(t, stored.Experience, 2)
	assert.Len(t, stored.Education, 1)

	p, err = f.service.RemoveExperience(f.ctx, stored.Experience[1].ID)
	require.NoError(t, err)
	require.Len(t, p.Experience, 1)
	assert.Equal(t, "Lead", p.Experience[0].Title)

	_, err = f.service.RemoveExperience(f.ctx, "missing")
	assert.ErrorIs(t, err, profile.ErrExperienceNotFound)

	p, err = f.service.RemoveEducation(f.ctx, stored.Education[0].ID)
	require.NoError(t, err)
	assert.Empty(t, p.Education)

	_, err = f.service.RemoveEducation(f.ctx, "missing")
	assert.ErrorIs(t, err, profile.ErrEducationNotFound)
}

func TestServiceDelete(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Upsert(f.ctx, profile.UpsertRequest{Status: "Developer", Skills: "go"})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(f.ctx))

	account, err := f.manager.Accounts().FindByID(context.Background(), f.account.ID)
	require.NoError(t, err)
	assert.Nil(t, account)

	profiles, err := f.service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestServiceUpsertAfterAccountDeleted(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.Delete(f.ctx))

	// the token outlives the account
	p, err := f.service.Upsert(f.ctx, profile.UpsertRequest{Status: "Developer", Skills: "go"})
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, devconnect.ErrAccountNotFound)

	status, _ := devconnect.ErrorStatus(err)
	assert.Equal(t, 404, status)

	profiles, err := f.service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}
