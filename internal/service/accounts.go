package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"pix_gateway/internal/domain" // Domain models and errors

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password and secret hashing
)

// RegisterInput is a new merchant sign-up
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Document string
	Phone    string
}

// Register creates a pending user with a zero balance and no rate override
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(in.Password) < 8 || len(in.Password) > 72 {
		return nil, fmt.Errorf("%w: password must be 8-72 characters", domain.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Document:     strings.TrimSpace(in.Document),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Status:       domain.UserPending,
	}
	if err := s.accounts.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": email}).Info("User registered")
	return user, nil
}

// Login checks the password, the account status and the optional login IP
func (s *Service) Login(ctx context.Context, email, password, ip string) (*domain.User, error) {
	user, err := s.accounts.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}
	switch user.Status {
	case domain.UserPending:
		return nil, fmt.Errorf("%w: account under review", domain.ErrUserInactive)
	case domain.UserBlocked:
		return nil, fmt.Errorf("%w: account blocked", domain.ErrUserInactive)
	}
	if allowed := strings.TrimSpace(user.AllowedLoginIP); allowed != "" && allowed != ip {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "ip": ip}).Warn("Login blocked by IP restriction")
		return nil, fmt.Errorf("%w: ip %s not allowed for this account", domain.ErrForbidden, ip)
	}
	return user, nil
}
