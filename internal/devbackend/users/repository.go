package users

import (
	"context"
)

// Repository stores accounts keyed by username. Lookups of unknown names
// return common.ErrorNotFound; taken names return common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetUserByLogin(ctx context.Context, userName string) (*User, error)
	Rename(ctx context.Context, oldName, newName string) error
	UpdatePasswordHash(ctx context.Context, userName string, hash []byte) error
	List(ctx context.Context) ([]User, error)
}
