package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"postboard/internal/credential"
	"postboard/internal/domain"
	"postboard/internal/repository"
)

const (
	FieldUsername = "username"
	FieldPassword = "password"

	MsgUsernameTooShort   = "username too short"
	MsgPasswordTooShort   = "password too short"
	MsgUsernameTaken      = "username already taken"
	MsgNoSuchIdentity     = "no such identity"
	MsgInvalidCredentials = "invalid credentials"

	minCredentialLength = 3
)

// FieldError is a recoverable failure tied to one input field. It is reported
// to the caller as data; any other error from UserService is fatal.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsFieldError extracts a FieldError from err.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Credentials is the username/password pair submitted to register and login.
type Credentials struct {
	Username string
	Password string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in Credentials) (*domain.User, error)
	Login(ctx context.Context, in Credentials) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// UserServiceOptions tunes login error reporting.
type UserServiceOptions struct {
	// UniformLoginErrors reports unknown usernames and wrong passwords with the same error.
	UniformLoginErrors bool
	Logger             logrus.FieldLogger
}

type userService struct {
	users   repository.UserRepository
	hasher  credential.Hasher
	uniform bool
	log     logrus.FieldLogger
}

func NewUserService(users repository.UserRepository, hasher credential.Hasher, opts UserServiceOptions) UserService {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &userService{
		users:   users,
		hasher:  hasher,
		uniform: opts.UniformLoginErrors,
		log:     log,
	}
}

func (s *userService) Register(ctx context.Context, in Credentials) (*domain.User, error) {
	if utf8.RuneCountInString(in.Username) < minCredentialLength {
		return nil, &FieldError{Field: FieldUsername, Message: MsgUsernameTooShort}
	}
	if utf8.RuneCountInString(in.Password) < minCredentialLength {
		return nil, &FieldError{Field: FieldPassword, Message: MsgPasswordTooShort}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			s.log.WithField("username", in.Username).Debug("registration rejected: username taken")
			return nil, &FieldError{Field: FieldUsername, Message: MsgUsernameTaken}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, in Credentials) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.loginError(FieldUsername, MsgNoSuchIdentity)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, s.loginError(FieldPassword, MsgInvalidCredentials)
	}

	s.log.WithField("user_id", user.ID).Debug("user logged in")
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) loginError(field, message string) error {
	if s.uniform {
		return &FieldError{Field: FieldPassword, Message: MsgInvalidCredentials}
	}
	return &FieldError{Field: field, Message: message}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
