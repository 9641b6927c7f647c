package util

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_UsesJSONNames(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	type req struct {
		Title    string `json:"title" validate:"required"`
		Password string `json:"password" validate:"required,password"`
	}

	err = v.Struct(req{Password: "weak"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"title", "password"}, fields)
}
