package devconnect

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

const MinPasswordLength = 6

type RegisterAccountMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

func (e RegisterAccountMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Name,
			validation.By(NotBlank("Name is required")),
		),
		validation.Field(&e.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&e.Password,
			validation.Required.Error("Please enter a password with 6 or more characters"),
			validation.Length(MinPasswordLength, 0).Error("Please enter a password with 6 or more characters"),
		),
	)
	return NewValidationErrors(err, "name", "email", "password")
}

type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e LoginMessage) Type() string { return "auth.login" }

func (e LoginMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&e.Password,
			validation.Required.Error("Password is required"),
		),
	)
	return NewValidationErrors(err, "email", "password")
}

// NotBlank fails with message when the value is empty after trimming spaces
func NotBlank(message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	}
}

// RegisterAccountHandler persists a new account. It does not issue tokens.
type RegisterAccountHandler struct {
	repo   RepositoryManager
	hasher PasswordHasher
}

func NewRegisterAccountHandler(repo RepositoryManager, hasher PasswordHasher) *RegisterAccountHandler {
	return &RegisterAccountHandler{repo: repo, hasher: hasher}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, oops.In("registration").Wrapf(ctx.Err(), "context cancelled during account registration")
	default:
		return h.execute(ctx, msg)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	if err := msg.Validate(); err != nil {
		return nil, oops.Code(CodeValidation).In("registration").Wrap(err)
	}

	existing, err := h.repo.Accounts().FindByEmail(ctx, msg.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, oops.Code(CodeDuplicateAccount).
			In("registration").
			Wrap(ErrDuplicateAccount)
	}

	hash, err := h.hasher.HashContext(ctx, msg.Password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Name:         strings.TrimSpace(msg.Name),
		Email:        msg.Email,
		Avatar:       GravatarURL(msg.Email),
		PasswordHash: hash,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			account.ID = id
		}
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err = h.repo.Accounts().CreateTx(ctx, tx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}
