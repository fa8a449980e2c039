package users

import "context"

// Repo is the user directory. GetByID returns errors.ErrUserNotFound for unknown ids.
type Repo interface {
	GetByID(ctx context.Context, id string) (*User, error)

	// FindOrCreate returns the stored user with user.ID, inserting user when none exists.
	// created is true when the insert happened.
	FindOrCreate(ctx context.Context, user *User) (stored *User, created bool, err error)

	Update(ctx context.Context, user *User) error
}
