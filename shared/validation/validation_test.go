package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type signup struct {
	FirstName string `json:"firstName" validate:"required,alphaspace"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
}

func TestValidator_Valid(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	require.NoError(t, v.Struct(signup{FirstName: "Isaac Newton", Email: "a@x.com", Password: "12345678"}))
}

func TestValidator_TranslatedMessages(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.Struct(signup{FirstName: "Is4ac", Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "firstName may only contain letters and spaces", verr.Fields["firstName"])
	require.Equal(t, "email must be a valid email address", verr.Fields["email"])
	require.Equal(t, "password must be at least 8 characters in length", verr.Fields["password"])
	require.Contains(t, err.Error(), "email must be a valid email address")
}

func TestValidator_Required(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.Struct(signup{})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email is a required field", verr.Fields["email"])
	require.Len(t, verr.Fields, 3)
}
