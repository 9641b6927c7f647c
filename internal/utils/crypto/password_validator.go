package crypto

import (
	"github.com/go-playground/validator/v10"
)

// PasswordTag is the validator tag that enforces IsStrong.
const PasswordTag = "password"

func passwordRule(fl validator.FieldLevel) bool {
	return IsStrong(fl.Field().String())
}

// RegisterPasswordValidator registers the "password" validation tag with the validator
func RegisterPasswordValidator(v *validator.Validate) error {
	return v.RegisterValidation(PasswordTag, passwordRule)
}
