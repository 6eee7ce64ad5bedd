package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/repository"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

type memoryUsers struct {
	mu        sync.Mutex
	users     map[int64]models.User
	nextID    int64
	lastLogin map[int64]time.Time
	findErr   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[int64]models.User{}, lastLogin: map[int64]time.Time{}}
}

func (m *memoryUsers) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) emailTakenLocked(email string, except int64) bool {
	for id, u := range m.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTakenLocked(user.Email, 0) {
		return repository.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.emailTakenLocked(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) UpdateLastLogin(_ context.Context, id int64, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin[id] = ts
	return nil
}

func (m *memoryUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func seedUser(t *testing.T, repo *memoryUsers, email, password string, role models.UserRole, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Name: "Jean Dupont", Email: email, PasswordHash: string(hash), Role: role, Status: status, Branch: "Paris HQ"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newAuthService(repo *memoryUsers) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "colisselect-api"})
}

func TestLoginIssuesTokenAndUpdatesLastLogin(t *testing.T) {
	repo := newMemoryUsers()
	user := seedUser(t, repo, "admin@colisselect.com", "password123", models.RoleAdmin, models.UserStatusActive)
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ADMIN@colisselect.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "Paris HQ", resp.User.Branch)
	assert.Contains(t, repo.lastLogin, user.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "1", claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newMemoryUsers()
	seedUser(t, repo, "agent@colisselect.com", "password123", models.RoleAgent, models.UserStatusActive)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "agent@colisselect.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@colisselect.com", Password: "password123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMemoryUsers()
	seedUser(t, repo, "sophie@colisselect.com", "password123", models.RoleAgent, models.UserStatusInactive)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "sophie@colisselect.com", Password: "password123"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 403, appErr.Status)
	assert.Empty(t, repo.lastLogin)
}

func TestLoginStoreFailure(t *testing.T) {
	repo := newMemoryUsers()
	repo.findErr = errors.New("db down")
	_, err := newAuthService(repo).Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestRegisterCreatesCustomer(t *testing.T) {
	repo := newMemoryUsers()
	svc := newAuthService(repo)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Claire", Email: "Claire@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.Equal(t, "claire@example.com", resp.User.Email)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Name: "Claire", Email: "claire@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMemoryUsers()
	seedUser(t, repo, "admin@colisselect.com", "password123", models.RoleAdmin, models.UserStatusActive)
	resp, err := newAuthService(repo).Login(context.Background(), models.LoginRequest{Email: "admin@colisselect.com", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	repo := newMemoryUsers()
	user := seedUser(t, repo, "admin@colisselect.com", "password123", models.RoleAdmin, models.UserStatusActive)
	svc := newAuthService(repo)

	info, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@colisselect.com", info.Email)

	_, err = svc.Me(context.Background(), 42)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
