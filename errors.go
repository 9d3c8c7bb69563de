package devconnect

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/samber/oops"

	"github.com/goliatone/go-devconnect/middleware/jwtware"
	"github.com/goliatone/go-devconnect/persistence"
)

// Error codes attached to wrapped errors
const (
	CodeValidation           = "VALIDATION"
	CodeDuplicateAccount     = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeMissingToken         = "MISSING_TOKEN"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeNotFound             = "NOT_FOUND"
	CodeStoreUnavailable     = persistence.CodeStoreUnavailable
	CodeCredentialProcessing = "CREDENTIAL_PROCESSING"
)

// MsgServerError is the only message returned for internal failures
const MsgServerError = "Server Error"

// ErrDuplicateAccount is returned when the email is already registered
var ErrDuplicateAccount = errors.New("User already exists.")

// ErrInvalidCredentials covers both unknown emails and wrong passwords
var ErrInvalidCredentials = errors.New("Invalid credentials.")

// ErrMissingToken request carried no token
var ErrMissingToken = jwtware.ErrMissingToken

// ErrInvalidToken token failed signature, expiry or payload checks
var ErrInvalidToken = jwtware.ErrInvalidToken

// ErrAccountNotFound the authenticated account no longer exists
var ErrAccountNotFound = errors.New("Account not found.")

// ErrCredentialProcessing password hashing failed
var ErrCredentialProcessing = errors.New("unable to process credentials")

// ErrNoEmptyString password must not be empty
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword password does not match digest
var ErrMismatchedHashAndPassword = errors.New("password does not match")

// PublicError carries a status and a message that is safe to send to clients
type PublicError struct {
	Status  int
	Message string
}

// NewPublicError creates a client facing error
func NewPublicError(status int, message string) *PublicError {
	return &PublicError{Status: status, Message: message}
}

func (e *PublicError) Error() string {
	return e.Message
}

// ErrorCode returns the code of a wrapped error, if any
func ErrorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// FieldError is one entry of a validation failure
type FieldError struct {
	Param string `json:"param,omitempty"`
	Msg   string `json:"msg"`
}

// ValidationErrors lists field level failures in declaration order
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Param+": "+e.Msg)
	}
	return strings.Join(msgs, "; ")
}

// NewValidationErrors converts ozzo errors, keeping the order of fields.
// Fields not present in order are appended last.
func NewValidationErrors(err error, order ...string) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	seen := map[string]bool{}
	for _, field := range order {
		if ferr, ok := verrs[field]; ok && ferr != nil {
			out = append(out, FieldError{Param: field, Msg: ferr.Error()})
			seen[field] = true
		}
	}

	for field, ferr := range verrs {
		if seen[field] || ferr == nil {
			continue
		}
		out = append(out, FieldError{Param: field, Msg: ferr.Error()})
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// ErrorStatus maps an error to the HTTP status and the public messages.
// Internal detail never leaves this function.
func ErrorStatus(err error) (int, []FieldError) {
	if err == nil {
		return http.StatusOK, nil
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, verrs
	}

	switch {
	case errors.Is(err, ErrDuplicateAccount):
		return http.StatusBadRequest, msg(ErrDuplicateAccount.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest, msg(ErrInvalidCredentials.Error())
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized, msg(ErrMissingToken.Error())
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, msg(ErrInvalidToken.Error())
	case errors.Is(err, ErrAccountNotFound):
		return http.StatusNotFound, msg(ErrAccountNotFound.Error())
	}

	var pubErr *PublicError
	if errors.As(err, &pubErr) {
		return pubErr.Status, msg(pubErr.Message)
	}

	return http.StatusInternalServerError, msg(MsgServerError)
}

func msg(m string) []FieldError {
	return []FieldError{{Msg: m}}
}
