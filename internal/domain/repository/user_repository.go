package repository

import (
	"context"

	"github.com/oksasatya/travel-diaries/internal/domain/entity"
)

// UserRepository defines the interface for credential-store operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	// ListByIDs resolves a set of user ids in one round trip; unknown ids
	// are simply absent from the result.
	ListByIDs(ctx context.Context, ids []string) ([]*entity.User, error)
}
