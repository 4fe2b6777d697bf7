package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/validideahq/valididea/internal/application"
	domain "github.com/validideahq/valididea/internal/domain/users"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// TokenPair is returned by Register and Login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service implements register/login/me over the users repository. Tokens are
// self-contained JWTs; there is no server-side session store.
type Service struct {
	Users         domain.Repository
	Clock         application.Clock
	AccessSecret  []byte
	RefreshSecret []byte
}

type RegisterCommand struct {
	Email    string
	Name     string
	Password string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*domain.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || len(cmd.Password) < 8 {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if existing, err := s.Users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, TokenPair{}, domain.ErrEmailTaken
	}

	hash, err := HashPassword(cmd.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	now := s.Clock.Now()
	user := &domain.User{
		ID:             uuid.New().String(),
		Email:          email,
		Name:           cmd.Name,
		PasswordHash:   hash,
		Role:           domain.RoleUser,
		Credits:        domain.DailyCredits,
		CreditsResetAt: now,
		NotifyByEmail:  true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.issueTokens(user.ID)
	return user, pair, err
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || user == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user.ID)
	return user, pair, err
}

// Me returns the cached-user snapshot the client refreshes on demand.
func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := VerifyToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if _, err := s.Users.GetByID(ctx, claims.Subject); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.issueTokens(claims.Subject)
}

func (s *Service) issueTokens(userID string) (TokenPair, error) {
	access, err := GenerateToken(userID, AccessTokenTTL, s.AccessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := GenerateToken(userID, RefreshTokenTTL, s.RefreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
