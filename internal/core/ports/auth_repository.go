package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// AuthRepository stores user accounts. Emails are unique: Create reports a
// duplicate as domain.ErrUserExists, and FindByEmail reports a miss as
// domain.ErrUserNotFound.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
