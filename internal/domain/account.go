package domain

import (
	"fmt"
	"time"
)

// Role is the caller's authorization level.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a textual role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleGuest, RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Profile is a caller's contact information.
type Profile struct {
	Principal  string    `json:"principal"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Registered time.Time `json:"registered"`
}

// PaymentConfig is the payment provider configuration an admin manages.
type PaymentConfig struct {
	SecretKey        string   `json:"secret_key"`
	AllowedCountries []string `json:"allowed_countries"`
}
