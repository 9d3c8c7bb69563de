// Package profile holds the developer profile feature that sits behind the
// auth gate: one profile per account, with experience and education entries
// and social links. Public reads embed the owner's name and avatar.
package profile

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
)

var (
	ErrNoProfile          = devconnect.NewPublicError(http.StatusBadRequest, "There is no profile for this user.")
	ErrProfileNotFound    = devconnect.NewPublicError(http.StatusBadRequest, "Profile not found.")
	ErrExperienceNotFound = devconnect.NewPublicError(http.StatusNotFound, "Experience not found.")
	ErrEducationNotFound  = devconnect.NewPublicError(http.StatusNotFound, "Education not found.")
)

// Owner is the public view of the account behind a profile
type Owner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type Social struct {
	Youtube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

type Education struct {
	ID           string     `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

type Profile struct {
	ID             string       `json:"id"`
	AccountID      string       `json:"-"`
	Owner          *Owner       `json:"user,omitempty"`
	Company        string       `json:"company,omitempty"`
	Website        string       `json:"website,omitempty"`
	Location       string       `json:"location,omitempty"`
	Status         string       `json:"status"`
	Skills         []string     `json:"skills"`
	Bio            string       `json:"bio,omitempty"`
	GithubUsername string       `json:"githubusername,omitempty"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Social         Social       `json:"social"`
	CreatedAt      time.Time    `json:"date"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Repository persists profiles. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	FindByAccount(ctx context.Context, accountID uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Upsert(ctx context.Context, p *Profile) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error
}
