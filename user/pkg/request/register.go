package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type Register struct {
	Username string `validate:"max=100"                    json:"username"`
	Email    string `validate:"required,email"             json:"email"`
	Password string `validate:"required,min=8,max=72"      json:"password"`
	Role     string `validate:"omitempty,oneof=user admin" json:"role"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email).Str("username", r.Username).Str("role", r.Role)
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	type R Register
	return json.Marshal(R(r))
}
