package httpapi

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_OwnerKeyTag(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = newValidator() })

	require.NoError(t, v.Struct(loginRequest{Role: "owner", OwnerKey: "12345678Z"}))
	require.NoError(t, v.Struct(loginRequest{Role: "operator"}))
	require.Error(t, v.Struct(loginRequest{Role: "owner", OwnerKey: "1234567Z"}))
	require.Error(t, v.Struct(loginRequest{Role: "owner", OwnerKey: "12345678z"}))
}

func TestMustRegister_PanicsOnBadTag(t *testing.T) {
	v := validator.New()
	require.Panics(t, func() {
		mustRegister(v, "", func(fl validator.FieldLevel) bool { return true })
	})
	require.Panics(t, func() {
		mustRegister(v, "ownerkey", nil)
	})
}
