package handler

import (
	"time"

	"trustlessid/internal/auth/models"
	dErrors "trustlessid/pkg/domain-errors"
)

// LoginRequest is the body of POST /auth/login. Any password is accepted.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// LogoutResponse is returned by POST /auth/logout.
type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}
