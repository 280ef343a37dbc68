package service

import (
	"context"
	"errors"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/store"
)

// UserService exposes the profile surface: sanitized reads and the narrow
// name/email update.
type UserService struct {
	Store store.Store
}

// GetProfile returns the sanitized view of a user, role name resolved.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrUserNotFound
		}
		return domain.Profile{}, err
	}
	return s.profile(ctx, u)
}

// UpdateProfile changes name and/or email; empty fields keep their current
// value. A changed email is re-normalised and must not collide with another
// account.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, email string) (domain.Profile, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrUserNotFound
		}
		return domain.Profile{}, err
	}

	if name == "" {
		name = u.Name
	}
	if email == "" {
		email = u.Email
	}
	email = NormalizeEmail(email)

	if err := s.Store.Users().UpdateProfile(ctx, userID, name, email); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Profile{}, ErrEmailAlreadyRegistered
		}
		return domain.Profile{}, err
	}

	u.Name = name
	u.Email = email
	return s.profile(ctx, u)
}

func (s *UserService) profile(ctx context.Context, u domain.User) (domain.Profile, error) {
	roleName := domain.RoleUser
	role, err := s.Store.Roles().GetRoleByID(ctx, u.RoleID)
	switch {
	case err == nil:
		roleName = role.Name
	case errors.Is(err, store.ErrNotFound):
		// Fall back to the default name rather than failing the read.
	default:
		return domain.Profile{}, err
	}
	return profileOf(u, roleName), nil
}
