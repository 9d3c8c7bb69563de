package repository

import (
	"context"
	"time"

	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
	"github.com/goliatone/go-devconnect/profile"
)

// ProfileModel is the Bun model for profiles.
type ProfileModel struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`

	ID             uuid.UUID            `bun:"id,pk,type:uuid"`
	AccountID      uuid.UUID            `bun:"account_id,notnull,unique,type:uuid"`
	Owner          *devconnect.Account  `bun:"rel:belongs-to,join:account_id=id"`
	Company        string               `bun:"company"`
	Website        string               `bun:"website"`
	Location       string               `bun:"location"`
	Status         string               `bun:"status,notnull"`
	Skills         []string             `bun:"skills"`
	Bio            string               `bun:"bio"`
	GithubUsername string               `bun:"github_username"`
	Experience     []profile.Experience `bun:"experience"`
	Education      []profile.Education  `bun:"education"`
	Social         profile.Social       `bun:"social"`
	CreatedAt      time.Time            `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time            `bun:"updated_at,notnull,default:current_timestamp"`
}

// ProfileRepository implements profile.Repository using Bun. Upsert and Save
// use raw queries: entry lists are written even when empty, and upserts
// conflict on account_id.
type ProfileRepository struct {
	records bunrepo.Repository[*ProfileModel]
	db      *bun.DB
}

var _ profile.Repository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new repository.
func NewProfileRepository(db *bun.DB) *ProfileRepository {
	records := bunrepo.NewRepository[*ProfileModel](db, bunrepo.ModelHandlers[*ProfileModel]{
		NewRecord: func() *ProfileModel { return &ProfileModel{} },
		GetID: func(m *ProfileModel) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *ProfileModel, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})
	return &ProfileRepository{records: records, db: db}
}

// FindByAccount implements profile.Repository.
func (r *ProfileRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	model, err := r.records.Get(ctx,
		bunrepo.Relation("Owner"),
		bunrepo.SelectBy("account_id", "=", accountID.String()),
	)
	if err != nil {
		if bunrepo.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storeError(err, "find profile")
	}
	return r.toProfile(model), nil
}

// List implements profile.Repository. Profiles are listed newest first and
// without a page limit.
func (r *ProfileRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	models, _, err := r.records.List(ctx,
		bunrepo.Relation("Owner"),
		bunrepo.OrderBy("prf.created_at DESC"),
		bunrepo.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(0).Offset(0)
		}),
	)
	if err != nil && !bunrepo.IsRecordNotFound(err) {
		return nil, storeError(err, "list profiles")
	}

	profiles := make([]*profile.Profile, len(models))
	for i := range models {
		profiles[i] = r.toProfile(models[i])
	}
	return profiles, nil
}

// Upsert implements profile.Repository.
func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	model := r.fromProfile(p)

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (account_id) DO UPDATE").
		Set("company = EXCLUDED.company").
		Set("website = EXCLUDED.website").
		Set("location = EXCLUDED.location").
		Set("status = EXCLUDED.status").
		Set("skills = EXCLUDED.skills").
		Set("bio = EXCLUDED.bio").
		Set("github_username = EXCLUDED.github_username").
		Set("social = EXCLUDED.social").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, storeError(err, "upsert profile")
	}

	return r.FindByAccount(ctx, model.AccountID)
}

// Save implements profile.Repository. Only the entry lists move.
func (r *ProfileRepository) Save(ctx context.Context, p *profile.Profile) error {
	model := r.fromProfile(p)

	_, err := r.db.NewUpdate().
		Model(model).
		Column("experience", "education", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return storeError(err, "save profile")
	}
	return nil
}

// DeleteByAccountTx implements profile.Repository.
func (r *ProfileRepository) DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error {
	if err := r.records.DeleteWhereTx(ctx, tx, bunrepo.DeleteBy("account_id", "=", accountID.String())); err != nil {
		return storeError(err, "delete profile")
	}
	return nil
}

func (r *ProfileRepository) toProfile(m *ProfileModel) *profile.Profile {
	p := &profile.Profile{
		ID:             m.ID.String(),
		AccountID:      m.AccountID.String(),
		Company:        m.Company,
		Website:        m.Website,
		Location:       m.Location,
		Status:         m.Status,
		Skills:         m.Skills,
		Bio:            m.Bio,
		GithubUsername: m.GithubUsername,
		Experience:     m.Experience,
		Education:      m.Education,
		Social:         m.Social,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []profile.Experience{}
	}
	if p.Education == nil {
		p.Education = []profile.Education{}
	}

	if m.Owner != nil {
		p.Owner = &profile.Owner{
			ID:     m.Owner.ID.String(),
			Name:   m.Owner.Name,
			Avatar: m.Owner.Avatar,
		}
	}
	return p
}

func (r *ProfileRepository) fromProfile(p *profile.Profile) *ProfileModel {
	var id uuid.UUID
	if parsed, err := uuid.Parse(p.ID); err == nil {
		id = parsed
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	var accountID uuid.UUID
	if parsed, err := uuid.Parse(p.AccountID); err == nil {
		accountID = parsed
	}

	now := time.Now().UTC()
	createdAt, updatedAt := p.CreatedAt, p.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return &ProfileModel{
		ID:             id,
		AccountID:      accountID,
		Company:        p.Company,
		Website:        p.Website,
		Location:       p.Location,
		Status:         p.Status,
		Skills:         p.Skills,
		Bio:            p.Bio,
		GithubUsername: p.GithubUsername,
		Experience:     p.Experience,
		Education:      p.Education,
		Social:         p.Social,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

func storeError(err error, op string) error {
	return oops.Code(devconnect.CodeStoreUnavailable).In("store").With("operation", op).Wrapf(err, "%s", op)
}
