package users

import (
	"context"
	"errors"
)

// ErrNotFound lo devuelven las implementaciones cuando el id no existe.
var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	Save(ctx context.Context, u User) error
}
