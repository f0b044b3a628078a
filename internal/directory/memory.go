package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process directory with the same uniqueness semantics as
// the Postgres store. Used in tests and local development.
type Memory struct {
	mu    sync.Mutex
	users map[string]*User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*User)}
}

func (m *Memory) FindByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.HasEmail(email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *Memory) Create(ctx context.Context, email string, emailVerified bool, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owned(email) {
		return nil, ErrEmailTaken
	}

	u := &User{
		ID:            uuid.NewString(),
		Email:         email,
		EmailVerified: emailVerified,
		Name:          name,
	}
	m.users[u.ID] = u
	return copyUser(u), nil
}

func (m *Memory) AddSecondaryEmail(ctx context.Context, userID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if m.owned(email) {
		return ErrEmailTaken
	}

	u.SecondaryEmails = append(u.SecondaryEmails, email)
	return nil
}

func (m *Memory) RemoveSecondaryEmail(ctx context.Context, userID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}

	kept := u.SecondaryEmails[:0]
	for _, e := range u.SecondaryEmails {
		if !strings.EqualFold(e, email) {
			kept = append(kept, e)
		}
	}
	u.SecondaryEmails = kept
	return nil
}

func (m *Memory) SetIAMState(ctx context.Context, userID, iamUID string, lastRefresh time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}

	u.IAMUID = iamUID
	t := lastRefresh
	u.LastRefresh = &t
	return nil
}

// Seed inserts a fully formed user, bypassing uniqueness checks. Test
// helper only.
func (m *Memory) Seed(u *User) *User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.users[u.ID] = copyUser(u)
	return u
}

// owned reports whether any account holds the address. Callers must hold
// the lock.
func (m *Memory) owned(email string) bool {
	for _, u := range m.users {
		if u.HasEmail(email) {
			return true
		}
	}
	return false
}

func copyUser(u *User) *User {
	c := *u
	c.SecondaryEmails = append([]string(nil), u.SecondaryEmails...)
	if u.LastRefresh != nil {
		t := *u.LastRefresh
		c.LastRefresh = &t
	}
	return &c
}
