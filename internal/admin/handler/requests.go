package handler

import (
	"strings"

	dErrors "smartration/pkg/domain-errors"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is malformed")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}
