package user

import (
	"context"
	"sync"
)

// MemoryStore keeps the user table in process memory. The mutex makes
// username uniqueness atomic against concurrent registrations, matching
// what the unique index gives the Postgres repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*User
	byID   map[int64]*User
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]*User),
		byID:   make(map[int64]*User),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[user.Username]; ok {
		return nil, ErrUsernameTaken
	}
	s.nextID++
	u := &User{ID: s.nextID, Username: user.Username, Password: user.Password}
	s.byName[u.Username] = u
	s.byID[u.ID] = u
	user.ID = u.ID
	return user, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}
