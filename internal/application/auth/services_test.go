package auth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validideahq/valididea/internal/application"
	domain "github.com/validideahq/valididea/internal/domain/users"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	byEml map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, byEml: map[string]*domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEml[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byEml[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEml[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Save(_ context.Context, u *domain.User) error     { return nil }
func (m *memUsers) ConsumeCredit(_ context.Context, id string) error { return nil }

func newTestService() (*Service, *memUsers) {
	users := newMemUsers()
	return &Service{
		Users:         users,
		Clock:         application.SystemClock{},
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}, users
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "argon2id$v=19$"))

	assert.NoError(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong password"), ErrInvalidCredentials)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.Error(t, VerifyPassword("not-a-hash", "whatever"))
	assert.Error(t, VerifyPassword("argon2id$v=19$m=bogus$AAAA$BBBB", "whatever"))
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same input")
	require.NoError(t, err)
	h2, err := HashPassword("same input")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "each hash gets a fresh salt")
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := GenerateToken("user-1", AccessTokenTTL, secret)
	require.NoError(t, err)

	claims, err := VerifyToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = VerifyToken(tok, []byte("other-secret"))
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()

	user, pair, err := svc.Register(context.Background(), RegisterCommand{
		Email:    "  Ana@Example.COM ",
		Name:     "Ana",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email, "email is normalized")
	assert.Equal(t, domain.DailyCredits, user.Credits)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	logged, _, err := svc.Login(context.Background(), "ana@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = svc.Login(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.Register(context.Background(), RegisterCommand{Email: "a@b.co", Password: "longenough"})
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), RegisterCommand{Email: "a@b.co", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Register(context.Background(), RegisterCommand{Email: "a@b.co", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	svc, users := newTestService()

	user, pair, err := svc.Register(context.Background(), RegisterCommand{Email: "a@b.co", Password: "longenough"})
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)

	// an access token is signed with the wrong secret for refresh
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// deleted user cannot refresh
	users.mu.Lock()
	delete(users.byID, user.ID)
	users.mu.Unlock()
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
