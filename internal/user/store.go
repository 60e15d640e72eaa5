package user

import "context"

// Store is the persistence surface the directory service runs on.
// Two implementations exist: the Postgres repository and an in-memory
// store used by tests and DB-less dev mode.
type Store interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}
