// Package service provides the business logic of the Thingful API,
// delegating persistence to repositories and password work to a hashing pool.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
	"github.com/thingful/thingful/internal/sanitize"
)

// UserRepository defines the persistence operations required by the user service.
type UserRepository interface {
	// FindByUserName returns the user with the given user_name, or
	// common.ErrNotFound.
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	// UserNameExists reports whether a user with the given user_name exists.
	UserNameExists(ctx context.Context, userName string) (bool, error)
	// InsertUser stores a new user and returns it with id and date_created
	// assigned. A uniqueness violation yields common.ErrDuplicateUser.
	InsertUser(ctx context.Context, user models.NewUser) (*models.User, error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Compare(ctx context.Context, plaintext, hash string) (bool, error)
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	UserName string
	FullName string
	Nickname string
	Password string
}

// UserService owns password policy, hashing and the public view of users.
type UserService struct {
	repo      UserRepository
	hasher    Hasher
	sanitizer sanitize.Sanitizer
}

// NewUserService constructs a UserService from its collaborators.
func NewUserService(repo UserRepository, hasher Hasher, sanitizer sanitize.Sanitizer) *UserService {
	return &UserService{repo: repo, hasher: hasher, sanitizer: sanitizer}
}

// FindByUserName looks up a single user record.
func (s *UserService) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.repo.FindByUserName(ctx, userName)
}

// UserNameExists reports whether userName is taken.
func (s *UserService) UserNameExists(ctx context.Context, userName string) (bool, error) {
	return s.repo.UserNameExists(ctx, userName)
}

// InsertUser persists candidate and returns the stored record.
func (s *UserService) InsertUser(ctx context.Context, candidate models.NewUser) (*models.User, error) {
	return s.repo.InsertUser(ctx, candidate)
}

// HashPassword returns a salted one-way hash of plaintext.
func (s *UserService) HashPassword(ctx context.Context, plaintext string) (string, error) {
	return s.hasher.Hash(ctx, plaintext)
}

// ComparePasswords reports whether plaintext matches hash. A malformed hash
// is reported as an error alongside false.
func (s *UserService) ComparePasswords(ctx context.Context, plaintext, hash string) (bool, error) {
	return s.hasher.Compare(ctx, plaintext, hash)
}

// SerializeUser projects user into its public view. The password hash is
// never part of the result.
func (s *UserService) SerializeUser(user *models.User) models.UserView {
	return serializeUser(s.sanitizer, user)
}

func serializeUser(sanitizer sanitize.Sanitizer, user *models.User) models.UserView {
	if user == nil {
		return models.UserView{}
	}
	return models.UserView{
		ID:          user.ID,
		FullName:    sanitizer.Sanitize(user.FullName),
		UserName:    sanitizer.Sanitize(user.UserName),
		Nickname:    sanitizer.Sanitize(user.Nickname),
		DateCreated: user.DateCreated,
	}
}

// Register validates in, hashes the password and stores the new user.
//
// A policy failure is returned as *PolicyViolation, a taken user name as
// common.ErrDuplicateUser. Store errors are returned unmodified.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if v := ValidatePassword(in.Password); v != nil {
		return nil, v
	}

	exists, err := s.repo.UserNameExists(ctx, in.UserName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrDuplicateUser
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.InsertUser(ctx, models.NewUser{
		UserName: in.UserName,
		FullName: in.FullName,
		Nickname: in.Nickname,
		Password: hash,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IsPolicyViolation reports whether err carries a password policy
// violation and returns it.
func IsPolicyViolation(err error) (*PolicyViolation, bool) {
	var v *PolicyViolation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
