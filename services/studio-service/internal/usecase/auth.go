package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/config"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/shared/auth"
	"github.com/vasapolrittideah/couchnbs-api/shared/security"
	"github.com/vasapolrittideah/couchnbs-api/shared/validator"
)

// EmailSender delivers HTML email. *mailer.Mailer implements it.
type EmailSender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// SessionIssuer signs session tokens. *auth.JWTAuthenticator implements it.
type SessionIssuer interface {
	IssueSession(userID, role string) (string, error)
}

// AuthUsecase defines the account lifecycle of a studio user.
type AuthUsecase interface {
	Signup(ctx context.Context, params SignupParams) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
	GetCurrentUser(ctx context.Context, userID string) (*model.User, error)

	// ResolveRole returns the persisted role of a user for admin checks.
	ResolveRole(ctx context.Context, userID string) (string, error)

	// BootstrapAdmin creates an active, verified admin unless the email is taken.
	BootstrapAdmin(ctx context.Context, params BootstrapAdminParams) (bool, error)
}

type SignupParams struct {
	Name     string  `json:"name"     validate:"required"`
	Email    string  `json:"email"    validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone"`
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  *model.User
}

type BootstrapAdminParams struct {
	Name     string
	Email    string
	Password string
}

type authUsecase struct {
	userRepo  repository.UserRepository
	sessions  SessionIssuer
	mailer    EmailSender
	validator *validator.Validator
	cfg       *config.Config
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessions SessionIssuer,
	mailer EmailSender,
	validator *validator.Validator,
	cfg *config.Config,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:  userRepo,
		sessions:  sessions,
		mailer:    mailer,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *authUsecase) Signup(ctx context.Context, params SignupParams) error {
	params.Name = strings.TrimSpace(params.Name)
	params.Email = model.NormalizeEmail(params.Email)

	if err := u.validator.Struct(params); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) {
			return err
		}

		msg := "Please provide name, email, and password"
		if params.Name != "" && params.Email != "" && params.Password != "" {
			msg = "Please provide a valid email address"
		}
		return &ValidationError{Msg: msg, Fields: fields}
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, params.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return err
	}

	token, err := auth.GenerateRandomToken()
	if err != nil {
		return err
	}

	var phone *string
	if params.Phone != nil && strings.TrimSpace(*params.Phone) != "" {
		trimmed := strings.TrimSpace(*params.Phone)
		phone = &trimmed
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:                   params.Name,
		Email:                  params.Email,
		PasswordHash:           passwordHash,
		Phone:                  phone,
		Role:                   model.RoleUser,
		Status:                 model.StatusPending,
		EmailVerificationToken: &token,
		JoinDate:               u.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		return err
	}

	u.bestEffortNotify(user.Email, verificationSubject, verificationEmailBody(verificationURL(u.cfg.BaseURL, token)))

	return nil
}

// bestEffortNotify sends an email whose failure is logged and never reaches the caller.
func (u *authUsecase) bestEffortNotify(to, subject, body string) {
	if err := u.mailer.SendHTML([]string{to}, subject, body); err != nil {
		u.logger.Warn().Err(err).Str("email", to).Str("subject", subject).Msg("best-effort notification was not delivered")
	}
}

func (u *authUsecase) VerifyEmail(ctx context.Context, token string) error {
	user, err := u.userRepo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	verified := true
	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
		IsEmailVerified:             &verified,
		ClearEmailVerificationToken: true,
	}); err != nil {
		return err
	}

	return nil
}

func (u *authUsecase) ResendVerification(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	token, err := auth.GenerateRandomToken()
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
		EmailVerificationToken: &token,
	}); err != nil {
		return err
	}

	body := verificationEmailBody(verificationURL(u.cfg.BaseURL, token))
	if err := u.mailer.SendHTML([]string{user.Email}, verificationSubject, body); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	return nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, model.NormalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	if user.Status != model.StatusActive {
		return nil, &AccountNotActiveError{Status: user.Status}
	}

	token, err := u.sessions.IssueSession(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) ResolveRole(ctx context.Context, userID string) (string, error) {
	user, err := u.GetCurrentUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%w: %w", err, auth.ErrSubjectNotFound)
		}
		return "", err
	}

	return string(user.Role), nil
}

func (u *authUsecase) BootstrapAdmin(ctx context.Context, params BootstrapAdminParams) (bool, error) {
	if params.Password == "" {
		return false, nil
	}

	email := model.NormalizeEmail(params.Email)
	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return false, err
	}

	_, err = u.userRepo.CreateUser(ctx, &model.User{
		Name:            params.Name,
		Email:           email,
		PasswordHash:    passwordHash,
		Role:            model.RoleAdmin,
		Status:          model.StatusActive,
		IsEmailVerified: true,
		JoinDate:        u.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
