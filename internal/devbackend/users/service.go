// Package users manages development backend accounts: registration,
// password login, credential issuing and account changes.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/roomchat/internal/common"
	"github.com/dmitrijs2005/roomchat/internal/devbackend/auth"
)

var (
	ErrUserNotFound      = fmt.Errorf("user not found: %w", common.ErrorUnauthorized)
	ErrIncorrectPassword = fmt.Errorf("incorrect password: %w", common.ErrorUnauthorized)
	ErrUsernameTaken     = fmt.Errorf("username already registered: %w", common.ErrorAlreadyExists)
	ErrOldPassword       = fmt.Errorf("old password is incorrect: %w", common.ErrorValidation)
)

// DemoAccounts are the accounts created by Seed.
var DemoAccounts = map[string]string{
	"anna12": "dummy_password1",
	"max34":  "dummy_password2",
}

type Service struct {
	repo                  Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	hashCost              int
}

type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(repo Repository, secretKey string, tokenValidity time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:                  repo,
		jwtSecret:             []byte(secretKey),
		tokenValidityDuration: tokenValidity,
		hashCost:              bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	if err := check(account{Username: username, Password: password}); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Seed registers the demo accounts that do not exist yet.
func (s *Service) Seed(ctx context.Context) error {
	for name, password := range DemoAccounts {
		if _, err := s.Register(ctx, name, password); err != nil && !errors.Is(err, ErrUsernameTaken) {
			return fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return nil
}

// Login checks the password and returns a signed credential.
func (s *Service) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.verify(ctx, userName, password)
	if err != nil {
		return "", err
	}
	return s.generateAccessToken(user)
}

// Authenticate resolves a bearer credential to the account it names.
// The account must still carry the credential's name and id, so credentials
// issued before a rename never resolve again, not even to an account that
// later registers the freed name.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}
	user, err := s.repo.GetUserByLogin(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", common.ErrorInternal
	}
	if user.ID != claims.UserID {
		return "", common.ErrInvalidToken
	}
	return user.UserName, nil
}

// ChangeUsername renames current and returns a credential for the new name.
func (s *Service) ChangeUsername(ctx context.Context, current, newName string) (string, error) {
	if err := check(rename{NewUsername: newName}); err != nil {
		return "", err
	}

	if err := s.repo.Rename(ctx, current, newName); err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return "", ErrUsernameTaken
		case errors.Is(err, common.ErrorNotFound):
			return "", ErrUserNotFound
		}
		return "", common.ErrorInternal
	}

	user, err := s.repo.GetUserByLogin(ctx, newName)
	if err != nil {
		return "", common.ErrorInternal
	}
	return s.generateAccessToken(user)
}

func (s *Service) ChangePassword(ctx context.Context, userName, oldPassword, newPassword string) error {
	if err := check(passwordChange{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return err
	}

	if _, err := s.verify(ctx, userName, oldPassword); err != nil {
		if errors.Is(err, ErrIncorrectPassword) {
			return ErrOldPassword
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, userName, hash)
}

func (s *Service) Usernames(ctx context.Context) ([]string, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(list, func(u User, _ int) string { return u.UserName }), nil
}

func (s *Service) verify(ctx context.Context, userName, password string) (*User, error) {
	user, err := s.repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrIncorrectPassword
	}
	return user, nil
}

func (s *Service) generateAccessToken(user *User) (string, error) {
	token, err := auth.GenerateToken(user.UserName, user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
