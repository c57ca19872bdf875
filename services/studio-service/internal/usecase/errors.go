package usecase

import (
	"errors"
	"fmt"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("user already exists with this email")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid verification token")
	ErrInvalidOrExpiredToken = errors.New("password reset token is invalid or has expired")
	ErrAlreadyVerified       = errors.New("email is already verified")
	ErrEmailNotVerified      = errors.New("email is not verified")
	ErrAccountNotActive      = errors.New("account is not active")
	ErrNotFound              = errors.New("user not found")
	ErrInvalidStatus         = errors.New("invalid status value")
	ErrInvalidRole           = errors.New("invalid role value")
	ErrEmailDelivery         = errors.New("email delivery failed")

	ErrMissingType      = errors.New("missing required field: type")
	ErrFileRequired     = errors.New("a video file is required for this operation")
	ErrUnknownType      = errors.New("unknown ai type")
	ErrEmptyMessage     = errors.New("message is required")
	ErrMisconfigured    = errors.New("service is not configured")
	ErrUpstream         = errors.New("upstream service failed")
	ErrProcessingFailed = errors.New("processing failed")
)

// ValidationError carries a user facing message and optional per-field details.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AccountNotActiveError reports the status that blocked a login.
type AccountNotActiveError struct {
	Status model.Status
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("account status: %s", e.Status)
}

func (e *AccountNotActiveError) Unwrap() error { return ErrAccountNotActive }

type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown ai type: %s", e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }
