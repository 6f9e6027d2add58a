package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// SignupInput carries the registration form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Phone    string
	Address  string
}

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (string, *domain.User, error)
	// Login checks the credentials and that the user holds the requested role.
	Login(ctx context.Context, email, password string, role domain.Role) (string, *domain.User, error)
}
