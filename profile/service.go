package profile

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
)

type Service struct {
	repo    Repository
	manager devconnect.RepositoryManager
	logger  devconnect.Logger
	now     func() time.Time
	newID   func() string
}

type ServiceOption func(*Service)

func WithServiceLogger(logger devconnect.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the profile store with the account store. The manager
// provides the transaction used when an account is deleted.
func NewService(repo Repository, manager devconnect.RepositoryManager, opts ...ServiceOption) *Service {
	s := &Service{
		repo:    repo,
		manager: manager,
		logger:  devconnect.NopLogger{},
		now:     time.Now,
		newID: func() string {
			return ulid.Make().String()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Mine returns the profile of the authenticated account
func (s *Service) Mine(ctx context.Context) (*Profile, error) {
	accountID, err := currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	return s.requireProfile(ctx, accountID)
}

func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	return s.repo.List(ctx)
}

// ByAccount looks up a public profile. Malformed ids read as not found.
func (s *Service) ByAccount(ctx context.Context, rawID string) (*Profile, error) {
	accountID, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, oops.Code(devconnect.CodeNotFound).In("profile").With("account_id", rawID).Wrap(ErrProfileNotFound)
	}

	p, err := s.repo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, oops.Code(devconnect.CodeNotFound).In("profile").With("account_id", rawID).Wrap(ErrProfileNotFound)
	}
	return p, nil
}

// Upsert creates the profile for the authenticated account or updates the
// fields present in req. A profile is only created for an account that
// still exists.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, oops.Code(devconnect.CodeValidation).In("profile").Wrap(err)
	}

	accountID, err := currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if p == nil {
		account, err := s.manager.Accounts().FindByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, oops.Code(devconnect.CodeNotFound).
				In("profile").
				With("account_id", accountID).
				Wrap(devconnect.ErrAccountNotFound)
		}

		p = &Profile{
			ID:         uuid.NewString(),
			AccountID:  accountID.String(),
			Experience: []Experience{},
			Education:  []Education{},
			CreatedAt:  now,
		}
	}

	setIfPresent(&p.Company, req.Company)
	setIfPresent(&p.Website, req.Website)
	setIfPresent(&p.Location, req.Location)
	setIfPresent(&p.Bio, req.Bio)
	setIfPresent(&p.Status, req.Status)
	setIfPresent(&p.GithubUsername, req.GithubUsername)
	p.Skills = req.SkillList()
	p.Social = Social{
		Youtube:   strings.TrimSpace(req.Youtube),
		Twitter:   strings.TrimSpace(req.Twitter),
		Facebook:  strings.TrimSpace(req.Facebook),
		Linkedin:  strings.TrimSpace(req.Linkedin),
		Instagram: strings.TrimSpace(req.Instagram),
	}
	p.UpdatedAt = now

	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("profile saved", "account_id", accountID)
	return saved, nil
}

// Delete removes the profile and the account of the authenticated user in
// one transaction.
func (s *Service) Delete(ctx context.Context) error {
	accountID, err := currentAccount(ctx)
	if err != nil {
		return err
	}

	err = s.manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.DeleteByAccountTx(ctx, tx, accountID); err != nil {
			return err
		}
		return s.manager.Accounts().DeleteByIDTx(ctx, tx, accountID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "account_id", accountID)
	return nil
}

// AddExperience prepends an entry to the authenticated profile
func (s *Service) AddExperience(ctx context.Context, req ExperienceRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, oops.Code(devconnect.CodeValidation).In("profile").Wrap(err)
	}

	p, err := s.mine(ctx)
	if err != nil {
		return nil, err
	}

	from, _ := parseDate(req.From)
	entry := Experience{
		ID:          s.newID(),
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    strings.TrimSpace(req.Location),
		From:        from,
		To:          optionalDate(req.To),
		Current:     req.Current,
		Description: req.Description,
	}
	p.Experience = append([]Experience{entry}, p.Experience...)

	return s.save(ctx, p)
}

func (s *Service) RemoveExperience(ctx context.Context, id string) (*Profile, error) {
	p, err := s.mine(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, e := range p.Experience {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, oops.Code(devconnect.CodeNotFound).In("profile").With("experience_id", id).Wrap(ErrExperienceNotFound)
	}

	p.Experience = append(p.Experience[:idx], p.Experience[idx+1:]...)
	return s.save(ctx, p)
}

// AddEducation prepends an entry to the authenticated profile
func (s *Service) AddEducation(ctx context.Context, req EducationRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, oops.Code(devconnect.CodeValidation).In("profile").Wrap(err)
	}

	p, err := s.mine(ctx)
	if err != nil {
		return nil, err
	}

	from, _ := parseDate(req.From)
	entry := Education{
		ID:           s.newID(),
		School:       strings.TrimSpace(req.School),
		Degree:       strings.TrimSpace(req.Degree),
		FieldOfStudy: strings.TrimSpace(req.FieldOfStudy),
		From:         from,
		To:           optionalDate(req.To),
		Current:      req.Current,
		Description:  req.Description,
	}
	p.Education = append([]Education{entry}, p.Education...)

	return s.save(ctx, p)
}

func (s *Service) RemoveEducation(ctx context.Context, id string) (*Profile, error) {
	p, err := s.mine(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, e := range p.Education {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, oops.Code(devconnect.CodeNotFound).In("profile").With("education_id", id).Wrap(ErrEducationNotFound)
	}

	p.Education = append(p.Education[:idx], p.Education[idx+1:]...)
	return s.save(ctx, p)
}

func (s *Service) mine(ctx context.Context) (*Profile, error) {
	accountID, err := currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	return s.requireProfile(ctx, accountID)
}

func (s *Service) requireProfile(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	p, err := s.repo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, oops.Code(devconnect.CodeNotFound).In("profile").With("account_id", accountID).Wrap(ErrNoProfile)
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p *Profile) (*Profile, error) {
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func currentAccount(ctx context.Context) (uuid.UUID, error) {
	raw, ok := devconnect.AccountIDFromContext(ctx)
	if !ok {
		return uuid.Nil, oops.Code(devconnect.CodeMissingToken).In("profile").Wrap(devconnect.ErrMissingToken)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, oops.Code(devconnect.CodeInvalidToken).In("profile").With("account_id", raw).Wrap(devconnect.ErrInvalidToken)
	}
	return id, nil
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
