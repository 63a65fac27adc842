package request

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestLoginMasksPassword(t *testing.T) {
	expectedMap := map[string]string{"email": "email", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := Login{Email: "email", Password: "password"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "password", loginReq.Password)
}

func TestRegisterMasksPassword(t *testing.T) {
	actual, err := json.Marshal(Register{Email: "a@b.c", Password: "password"})

	assert.NoError(t, err)
	assert.NotContains(t, string(actual), `"password":"password"`)
}

func TestRegisterValidation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	tests := []struct {
		name    string
		req     Register
		isValid bool
	}{
		{name: "given email and long password should be valid", req: Register{Email: "a@b.c", Password: "password"}, isValid: true},
		{name: "given admin role should be valid", req: Register{Email: "a@b.c", Password: "password", Role: "admin"}, isValid: true},
		{name: "given bad email should be invalid", req: Register{Email: "nope", Password: "password"}},
		{name: "given short password should be invalid", req: Register{Email: "a@b.c", Password: "short"}},
		{name: "given unknown role should be invalid", req: Register{Email: "a@b.c", Password: "password", Role: "root"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validate.Struct(test.req)
			if test.isValid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
