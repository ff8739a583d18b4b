package auth

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the result of a successful login.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
}

// Service checks credentials and issues tokens.
type Service struct {
	users  UserDirectory
	tokens *Tokens
}

func NewService(users UserDirectory, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login verifies email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expires,
		UserID:      user.ID,
		Name:        user.Name,
	}, nil
}

// Verify returns the claims of a bearer token.
func (s *Service) Verify(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}
