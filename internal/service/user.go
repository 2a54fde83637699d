package service

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"k8s.io/klog/v2"

	"github.com/kothakarthikeya/legal-contract/internal/model"
	"github.com/kothakarthikeya/legal-contract/internal/repository"
)

// ErrInvalidCredentials covers both unknown user and wrong password so the
// login response does not reveal which one it was.
var ErrInvalidCredentials = fmt.Errorf("invalid username or password")

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	existing, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("username %s is already taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	klog.V(6).Infof("registered user %s", username)
	return user, nil
}

// Login verifies the password against the stored hash.
func (s *UserService) Login(username, password string) (*model.User, error) {
	user, err := s.repo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
