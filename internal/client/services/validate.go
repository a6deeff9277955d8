package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidInput = errors.New("invalid input")

var validate = validator.New()

type credentials struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=6,max=72"`
}

type signup struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=6,max=72"`
	Confirm  string `validate:"eqfield=Password"`
}

type usernameChange struct {
	NewUsername string `validate:"required,min=3,max=32,alphanum"`
}

type passwordChange struct {
	OldPassword string `validate:"required"`
	NewPassword string `validate:"required,min=6,max=72,nefield=OldPassword"`
}

// check runs struct validation and folds field errors into one
// ErrInvalidInput with a readable message.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "alphanum":
		return field + " may only contain letters and digits"
	case "eqfield":
		return "passwords do not match"
	case "nefield":
		return "new password must differ from the old one"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
