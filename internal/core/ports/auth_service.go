package ports

import (
	"context"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
