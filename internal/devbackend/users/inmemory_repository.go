package users

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dmitrijs2005/roomchat/internal/common"
)

type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	r.users[u.UserName] = &u

	out := u
	return &out, nil
}

func (r *InMemoryRepository) GetUserByLogin(ctx context.Context, userName string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *InMemoryRepository) Rename(ctx context.Context, oldName, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[oldName]
	if !ok {
		return common.ErrorNotFound
	}
	if _, taken := r.users[newName]; taken {
		return common.ErrorAlreadyExists
	}
	delete(r.users, oldName)
	u.UserName = newName
	r.users[newName] = u
	return nil
}

func (r *InMemoryRepository) UpdatePasswordHash(ctx context.Context, userName string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userName]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = slices.Clone(hash)
	return nil
}

// List returns every account ordered by username.
func (r *InMemoryRepository) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.MapToSlice(r.users, func(_ string, u *User) User { return *u })
	slices.SortFunc(out, func(a, b User) int { return strings.Compare(a.UserName, b.UserName) })
	return out, nil
}
