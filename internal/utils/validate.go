package util

import (
	"reflect"
	"strings"

	"note-keeper/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns the request validator shared by all handlers: the
// password rule is registered and field errors use the json field names so
// clients see "title" rather than "Title".
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := crypto.RegisterPasswordValidator(v); err != nil {
		return nil, err
	}
	return v, nil
}
