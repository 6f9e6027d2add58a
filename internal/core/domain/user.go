package domain

import (
	"errors"
	"time"
)

// Role identifies which dashboard a user acts from.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleDelivery Role = "delivery"
	RoleCustomer Role = "customer"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleVendor || r == RoleDelivery || r == RoleCustomer
}

// Identity is supplied once when a realtime connection is opened.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
