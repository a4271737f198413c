package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/facturio/internal/billing"
)

type mockRepository struct {
	users        map[int64]*User
	usersByEmail map[string]*User
	nextID       int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:        make(map[int64]*User),
		usersByEmail: make(map[string]*User),
		nextID:       1,
	}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) Create(_ context.Context, u User) (int64, error) {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = &u
	m.usersByEmail[strings.ToLower(u.Email)] = &u
	return u.ID, nil
}

func (m *mockRepository) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func TestCreateAndAuthenticate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateUserRequest{
		Email:     "admin@example.cm",
		Password:  "correct horse",
		FirstName: "Aline",
		LastName:  "Fotso",
		Role:      RoleAdmin,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", created.PasswordHash)
	assert.Equal(t, "Aline Fotso", created.FullName())

	user, err := svc.Authenticate(context.Background(), "Admin@Example.cm", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotNil(t, user.LastLoginAt)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "a@b.cm", Password: "password-1", FirstName: "A", LastName: "B", Role: RoleViewer,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "a@b.cm", "password-2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@b.cm", "password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	req := CreateUserRequest{Email: "dup@b.cm", Password: "password-1", FirstName: "A", LastName: "B", Role: RoleViewer}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "off@b.cm", Password: "password-1", FirstName: "A", LastName: "B", Role: RoleViewer,
	})
	require.NoError(t, err)
	repo.users[created.ID].IsActive = false
	repo.usersByEmail["off@b.cm"].IsActive = false

	_, err = svc.Authenticate(context.Background(), "off@b.cm", "password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
