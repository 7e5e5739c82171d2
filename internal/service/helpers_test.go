package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quill/internal/apperror"
	"quill/internal/cache"
	"quill/internal/database"
	"quill/internal/model"
	"quill/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, m notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, m)
	return nil
}

func (n *recordingNotifier) last(kind notify.Kind) (notify.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.msgs) - 1; i >= 0; i-- {
		if n.msgs[i].Kind == kind {
			return n.msgs[i], true
		}
	}
	return notify.Message{}, false
}

func (n *recordingNotifier) count(kind notify.Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.msgs {
		if m.Kind == kind {
			c++
		}
	}
	return c
}

// memStore 以 map 取代 Postgres，替換 package 層級的 store 函式
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
	clock *fakeClock
}

func (m *memStore) get(id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) touch(u *model.User) {
	u.LockVersion++
	if now := m.clock.Now(); now.After(u.UpdatedAt) {
		u.UpdatedAt = now
	}
}

func (m *memStore) mutate(id uuid.UUID, fn func(u *model.User)) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	fn(u)
	m.touch(u)
	return m.get(id)
}

func (m *memStore) SetAdmin(id uuid.UUID, isAdmin bool) {
	_, _ = m.mutate(id, func(u *model.User) { u.IsAdmin = isAdmin })
}

func (m *memStore) install(t *testing.T) {
	t.Helper()
	origCreate, origByID, origByEmail := createUser, getUserByID, getUserByEmail
	origUpdate, origPassword, origConfirm := updateUser, updateUserPassword, confirmUser
	origFailed, origUnlock, origDelete := recordFailedAttempt, unlockUser, deleteUser
	t.Cleanup(func() {
		createUser, getUserByID, getUserByEmail = origCreate, origByID, origByEmail
		updateUser, updateUserPassword, confirmUser = origUpdate, origPassword, origConfirm
		recordFailedAttempt, unlockUser, deleteUser = origFailed, origUnlock, origDelete
	})

	createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, existing := range m.users {
			if existing.Email == u.Email {
				return nil, fmt.Errorf("CreateUser: %w", apperror.ErrDuplicateIdentity)
			}
		}
		now := m.clock.Now()
		created := *u
		created.ID = uuid.New()
		created.IsAdmin = false
		created.CreatedAt = now
		created.UpdatedAt = now
		m.users[created.ID] = &created
		return m.get(created.ID)
	}
	getUserByID = func(_ context.Context, _ database.DB, id uuid.UUID) (*model.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.get(id)
	}
	getUserByEmail = func(_ context.Context, _ database.DB, email string) (*model.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		email = strings.ToLower(strings.TrimSpace(email))
		for id, u := range m.users {
			if u.Email == email {
				return m.get(id)
			}
		}
		return nil, apperror.NotFound("user", email)
	}
	updateUser = func(_ context.Context, _ database.DB, id uuid.UUID, upd model.UserUpdate) (*model.User, error) {
		m.mu.Lock()
		cur, ok := m.users[id]
		if ok && upd.LockVersion != nil && cur.LockVersion != *upd.LockVersion {
			m.mu.Unlock()
			return nil, apperror.Conflict("user", id.String())
		}
		m.mu.Unlock()
		return m.mutate(id, func(u *model.User) {
			if upd.Email != nil {
				u.Email = *upd.Email
			}
			if upd.FirstName != nil {
				u.FirstName = upd.FirstName
			}
			if upd.LastName != nil {
				u.LastName = upd.LastName
			}
		})
	}
	updateUserPassword = func(_ context.Context, _ database.DB, id uuid.UUID, hash string) error {
		_, err := m.mutate(id, func(u *model.User) { u.EncryptedPassword = hash })
		return err
	}
	confirmUser = func(_ context.Context, _ database.DB, id uuid.UUID) (*model.User, error) {
		return m.mutate(id, func(u *model.User) {
			if u.ConfirmedAt == nil {
				now := m.clock.Now()
				u.ConfirmedAt = &now
			}
		})
	}
	recordFailedAttempt = func(_ context.Context, _ database.DB, id uuid.UUID, maxAttempts int) (*model.User, error) {
		return m.mutate(id, func(u *model.User) {
			u.FailedAttempts++
			if u.LockedAt == nil && u.FailedAttempts >= maxAttempts {
				now := m.clock.Now()
				u.LockedAt = &now
			}
		})
	}
	unlockUser = func(_ context.Context, _ database.DB, id uuid.UUID) (*model.User, error) {
		return m.mutate(id, func(u *model.User) {
			u.FailedAttempts = 0
			u.LockedAt = nil
		})
	}
	deleteUser = func(_ context.Context, _ database.DB, id uuid.UUID) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.users[id]; !ok {
			return apperror.NotFound("user", id.String())
		}
		delete(m.users, id)
		return nil
	}
}

type fixture struct {
	auth     *Authenticator
	store    *memStore
	clock    *fakeClock
	notifier *recordingNotifier
	ttls     map[string]time.Duration
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	st := &memStore{users: map[uuid.UUID]*model.User{}, clock: clock}
	st.install(t)

	c, ttls := cache.NewMemoryCache()
	n := &recordingNotifier{}
	if opts.Secret == nil {
		opts.Secret = []byte("test-secret")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}
	auth := NewAuthenticator(nil, c, n, opts).WithClock(clock.Now)
	return &fixture{auth: auth, store: st, clock: clock, notifier: n, ttls: ttls}
}

const testPassword = "correct horse"

func (f *fixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), Registration{Email: email, Password: testPassword})
	require.NoError(t, err)
	return u
}
