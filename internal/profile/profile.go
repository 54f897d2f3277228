package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-cafe-orders.git/internal/auth"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var ErrWrongPassword = errors.New("wrong password")

// Service covers the owner-editable slice of a UserData document: name and
// address, plus the re-authenticated password change.
type Service struct {
	Store      store.Store
	Auth       *auth.Service
	BcryptCost int
}

func (s *Service) Get(ctx context.Context, uid string) (auth.User, error) {
	return s.Auth.UserByUID(ctx, uid)
}

func (s *Service) Update(ctx context.Context, uid, name, address string) error {
	u, err := s.Auth.UserByUID(ctx, uid)
	if err != nil {
		return err
	}
	if name != "" {
		u.Name = name
	}
	if address != "" {
		u.Address = address
	}
	if err := s.Store.Update(ctx, store.CollUserData, u.Email, u.UID, u); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// ChangePassword re-authenticates with the old password before accepting
// the new one.
func (s *Service) ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error {
	u, err := s.Auth.UserByUID(ctx, uid)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	if len(newPassword) < 6 {
		return auth.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost())
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.Store.Update(ctx, store.CollUserData, u.Email, u.UID, u)
}

func (s *Service) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}
