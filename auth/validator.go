package auth

import (
	"fmt"
	"snappy-chat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ValidateRegister reports the first broken rule in a readable form.
func ValidateRegister(req RegisterRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRegistration, err)
	}
	switch fe := validationErrors[0]; {
	case fe.Field() == "ConfirmPassword" && fe.Tag() == "eqfield":
		return fmt.Errorf("%w: passwords do not match", errors.ErrInvalidRegistration)
	case fe.Field() == "Password" && fe.Tag() == "min":
		return fmt.Errorf("%w: password must be at least 6 characters", errors.ErrInvalidRegistration)
	default:
		return fmt.Errorf("%w: %s is required", errors.ErrInvalidRegistration, fe.Field())
	}
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}
	return nil
}
