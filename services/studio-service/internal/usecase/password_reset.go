package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/config"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/shared/auth"
	"github.com/vasapolrittideah/couchnbs-api/shared/security"
)

// PasswordResetUsecase defines the business logic for password reset token operations.
type PasswordResetUsecase interface {
	// RequestPasswordReset stores a fresh reset token and emails the reset link.
	// The token is cleared again when the email cannot be delivered.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword replaces the password of the user holding an unexpired token.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetUsecase struct {
	userRepo repository.UserRepository
	mailer   EmailSender
	cfg      *config.Config
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	mailer EmailSender,
	cfg *config.Config,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	token, err := auth.GenerateRandomToken()
	if err != nil {
		return err
	}

	expires := u.now().Add(u.cfg.Token.PasswordResetTTL)
	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
		ResetPasswordToken:   &token,
		ResetPasswordExpires: &expires,
	}); err != nil {
		return err
	}

	body := passwordResetEmailBody(passwordResetURL(u.cfg.BaseURL, token))
	if err := u.mailer.SendHTML([]string{user.Email}, passwordResetSubject, body); err != nil {
		if _, rollbackErr := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
			ClearResetPassword: true,
		}); rollbackErr != nil {
			u.logger.Error().Err(rollbackErr).Str("user_id", user.ID).Msg("failed to roll back password reset token")
		}
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Msg: "Please provide a new password"}
	}

	user, err := u.userRepo.GetUserByResetToken(ctx, token, u.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
		PasswordHash:       &passwordHash,
		ClearResetPassword: true,
	}); err != nil {
		return err
	}

	return nil
}
