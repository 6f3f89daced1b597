package auth

import (
	"cryptochat/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("room", func(fl validator.FieldLevel) bool {
		return domain.IsValidRoomName(fl.Field().String())
	})
	return v
}

// Validate checks the `validate` tags of any request or command struct.
func Validate(s any) error {
	return validate.Struct(s)
}

type LoginRequest struct {
	Passphrase string `json:"passphrase" validate:"required,min=8,max=72"`
}
