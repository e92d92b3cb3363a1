package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/store"
)

type fakeUserStore struct {
	byID    map[string]*models.UserProfile
	byEmail map[string]*models.UserProfile
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]*models.UserProfile),
		byEmail: make(map[string]*models.UserProfile),
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.UserProfile) error {
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if u, ok := f.byID[userID]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func testService() (*Service, *fakeUserStore) {
	fs := newFakeUserStore()
	return NewService(fs, []byte("test-secret")), fs
}

func TestRegisterCreatesUserAndToken(t *testing.T) {
	svc, fs := testService()

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Alice@Example.com",
		Username: "alice",
		Password: "hunter2boogaloo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	// Email normalized to lowercase
	stored, err := fs.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "hunter2boogaloo", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "hunter2boogaloo",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Username: "alice2", Password: "hunter2boogaloo",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := testService()
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "hunter2boogaloo",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "hunter2boogaloo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := testService()
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "hunter2boogaloo",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := testService()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "hunter2boogaloo",
	})
	require.NoError(t, err)

	user, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc, fs := testService()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "hunter2boogaloo",
	})
	require.NoError(t, err)

	other := NewService(fs, []byte("different-secret"))
	_, err = other.ValidateToken(context.Background(), resp.Token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc, _ := testService()

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	assert.Error(t, err)
}
