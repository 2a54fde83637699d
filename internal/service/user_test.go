package service

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kothakarthikeya/legal-contract/internal/model"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(user *model.User) error {
	if _, exists := f.users[user.Username]; exists {
		return errors.New("UNIQUE constraint failed")
	}
	user.ID = uint(len(f.users) + 1)
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserRepo) GetByUsername(username string) (*model.User, error) {
	return f.users[username], nil
}

func TestRegisterHashesPassword(t *testing.T) {
	s := NewUserService(newFakeUserRepo())

	user, err := s.Register("alice", "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	s := NewUserService(newFakeUserRepo())
	if _, err := s.Register("alice", "a@example.com", "password1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := s.Register("alice", "b@example.com", "password2"); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	s := NewUserService(newFakeUserRepo())
	if _, err := s.Register("", "a@example.com", "password1"); err == nil {
		t.Fatal("expected empty username to be rejected")
	}
	if _, err := s.Register("bob", "b@example.com", "short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestLogin(t *testing.T) {
	s := NewUserService(newFakeUserRepo())
	if _, err := s.Register("alice", "a@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := s.Login("alice", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := s.Login("alice", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password should fail with ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Login("nobody", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user should fail with ErrInvalidCredentials, got %v", err)
	}
}
