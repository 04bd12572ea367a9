// Package authtest provides an in-memory auth.UserStore for tests
package authtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"
)

// MemUsers mirrors the uniqueness rules of the users table
type MemUsers struct {
	mu     sync.Mutex
	users  map[int]models.User
	nextID int
}

// NewMemUsers returns an empty store
func NewMemUsers() *MemUsers {
	return &MemUsers{users: make(map[int]models.User)}
}

func (m *MemUsers) CreateUser(ctx context.Context, mobile, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Mobile == mobile || u.Name == mobile {
			return nil, fmt.Errorf("%w: mobile %s is already registered", booking.ErrConflict, mobile)
		}
	}
	m.nextID++
	u := models.User{ID: m.nextID, Mobile: mobile, Name: mobile, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return &u, nil
}

func (m *MemUsers) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Mobile == mobile {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", booking.ErrNotFound, mobile)
}

func (m *MemUsers) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", booking.ErrNotFound, id)
	}
	return &u, nil
}

func (m *MemUsers) UpdateUserName(ctx context.Context, id int, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", booking.ErrNotFound, id)
	}
	for _, other := range m.users {
		if other.ID != id && other.Name == name {
			return fmt.Errorf("%w: name %q is taken", booking.ErrConflict, name)
		}
	}
	u.Name = name
	m.users[id] = u
	return nil
}

func (m *MemUsers) SetUserAvatar(ctx context.Context, id int, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", booking.ErrNotFound, id)
	}
	u.AvatarURL = url
	m.users[id] = u
	return nil
}

func (m *MemUsers) SetUserAuth(ctx context.Context, id int, realName, idCard string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", booking.ErrNotFound, id)
	}
	if u.RealName != "" {
		return fmt.Errorf("%w: real-name identity already recorded", booking.ErrConflict)
	}
	u.RealName, u.IDCard = realName, idCard
	m.users[id] = u
	return nil
}
