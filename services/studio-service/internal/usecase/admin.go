package usecase

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
)

// AdminUsecase manages accounts on behalf of an administrator. Callers are
// expected to have passed the admin check already.
type AdminUsecase interface {
	ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error)
	SetStatus(ctx context.Context, userID, status string) (*model.User, error)
	SetRole(ctx context.Context, userID, role string) (*model.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type adminUsecase struct {
	userRepo repository.UserRepository
}

func NewAdminUsecase(userRepo repository.UserRepository) AdminUsecase {
	return &adminUsecase{userRepo: userRepo}
}

func (u *adminUsecase) ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	return u.userRepo.ListUsers(ctx, params)
}

func (u *adminUsecase) SetStatus(ctx context.Context, userID, status string) (*model.User, error) {
	s := model.Status(status)
	if !s.Valid() {
		return nil, ErrInvalidStatus
	}

	return u.update(ctx, userID, repository.UpdateUserParams{Status: &s})
}

func (u *adminUsecase) SetRole(ctx context.Context, userID, role string) (*model.User, error) {
	r := model.Role(role)
	if !r.Valid() {
		return nil, ErrInvalidRole
	}

	return u.update(ctx, userID, repository.UpdateUserParams{Role: &r})
}

func (u *adminUsecase) DeleteUser(ctx context.Context, userID string) error {
	if _, err := u.userRepo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func (u *adminUsecase) update(ctx context.Context, userID string, params repository.UpdateUserParams) (*model.User, error) {
	user, err := u.userRepo.UpdateUser(ctx, userID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}
