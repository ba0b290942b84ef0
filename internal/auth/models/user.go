package models

import (
	"time"

	id "trustlessid/pkg/domain"
)

// User is a demo account. Any password is accepted for a known email.
type User struct {
	ID        id.UserID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
