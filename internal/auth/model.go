// File: internal/auth/model.go
package auth

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// User-facing messages for local presence checks.
const (
	MsgMissingSignUpFields = "Please fill in all required fields."
	MsgMissingCredentials  = "Please enter your email and password."
)

const notBlankValidationTag = "notblank"

// Identity is the provider's view of an authenticated user.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SignInRequest carries sign-in credentials; they are forwarded to the provider verbatim.
type SignInRequest struct {
	Email    string `form:"email" json:"email" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// SignUpRequest carries the sign-up form. Every field must be non-blank.
type SignUpRequest struct {
	FirstName string `form:"firstName" json:"first_name" validate:"notblank"`
	LastName  string `form:"lastName" json:"last_name" validate:"notblank"`
	Email     string `form:"email" json:"email" validate:"notblank"`
	Password  string `form:"password" json:"password" validate:"required"`
	Phone     string `form:"phone" json:"phone" validate:"notblank"`
	Address   string `form:"address" json:"address" validate:"notblank"`
}

// DisplayName is "<first> <last>" exactly as entered.
func (r SignUpRequest) DisplayName() string {
	return r.FirstName + " " + r.LastName
}

// SignedIn is the result of a successful sign-in or sign-up.
type SignedIn struct {
	Identity     Identity      `json:"user"`
	SessionToken string        `json:"-"`
	ExpiresIn    time.Duration `json:"-"`
}

// ValidationError reports a failed local presence check.
// Message is the fixed text shown to the user.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(notBlankValidationTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}
