package fakeuserrepo

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory user directory. It backs the service when no
// database is configured and is used throughout the tests.
type FakeUserRepo struct {
	users map[string]users.User
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users: make(map[string]users.User),
	}
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (ur *FakeUserRepo) FindOrCreate(_ context.Context, user *users.User) (*users.User, bool, error) {
	if user == nil || user.ID == "" {
		return nil, false, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[FakeUserRepo FindOrCreate] user id is required")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	if existing, ok := ur.users[user.ID]; ok {
		return &existing, false, nil
	}
	ur.users[user.ID] = *user
	stored := *user
	return &stored, true, nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	ur.users[user.ID] = *user
	return nil
}

// Len returns the number of stored users
func (ur *FakeUserRepo) Len() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users)
}
