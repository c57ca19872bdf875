package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/usecase"
	"github.com/vasapolrittideah/couchnbs-api/shared/httpx"
	"github.com/vasapolrittideah/couchnbs-api/shared/middleware"
)

const (
	msgServerError      = "Server error"
	msgInvalidJSON      = "Invalid request body"
	msgUserNotFound     = "User not found"
	msgStabilityMissing = "Stability API key not configured on server"
)

// errorWriter translates usecase errors into HTTP responses.
type errorWriter struct {
	logger *zerolog.Logger
	isProd bool
}

// write answers with the status and message mapped from err. serverMsg is used
// for every 5xx so callers can name the operation that failed.
func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error, serverMsg string) {
	var (
		validationErr *usecase.ValidationError
		notActiveErr  *usecase.AccountNotActiveError
		unknownErr    *usecase.UnknownTypeError
	)

	switch {
	case errors.As(err, &validationErr):
		var details any
		if len(validationErr.Fields) > 0 {
			details = validationErr.Fields
		}
		httpx.Error(w, http.StatusBadRequest, validationErr.Msg, details)
	case errors.Is(err, usecase.ErrDuplicateEmail):
		httpx.Message(w, http.StatusBadRequest, "User already exists with this email")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		httpx.Message(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, usecase.ErrInvalidToken):
		httpx.Message(w, http.StatusBadRequest, "Invalid verification token")
	case errors.Is(err, usecase.ErrInvalidOrExpiredToken):
		httpx.Message(w, http.StatusBadRequest, "Password reset token is invalid or has expired")
	case errors.Is(err, usecase.ErrAlreadyVerified):
		httpx.Message(w, http.StatusBadRequest, "Email is already verified")
	case errors.Is(err, usecase.ErrInvalidStatus):
		httpx.Message(w, http.StatusBadRequest, "Invalid status value")
	case errors.Is(err, usecase.ErrInvalidRole):
		httpx.Message(w, http.StatusBadRequest, "Invalid role value")
	case errors.Is(err, usecase.ErrEmptyMessage):
		httpx.Message(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, usecase.ErrMissingType):
		httpx.Message(w, http.StatusBadRequest, "Missing required field: type")
	case errors.Is(err, usecase.ErrFileRequired):
		httpx.Message(w, http.StatusBadRequest, "A video file is required for this operation")
	case errors.As(err, &unknownErr):
		httpx.Message(w, http.StatusBadRequest, fmt.Sprintf("Unknown AI type: %s", unknownErr.Type))
	case errors.Is(err, usecase.ErrEmailNotVerified):
		httpx.Message(w, http.StatusForbidden, "Please verify your email before logging in")
	case errors.As(err, &notActiveErr):
		httpx.Message(w, http.StatusForbidden, fmt.Sprintf("Account status: %s. Access denied.", notActiveErr.Status))
	case errors.Is(err, usecase.ErrNotFound):
		httpx.Message(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, usecase.ErrEmailDelivery),
		errors.Is(err, usecase.ErrMisconfigured),
		errors.Is(err, usecase.ErrUpstream),
		errors.Is(err, usecase.ErrProcessingFailed):
		e.serverError(w, r, err, serverMsg, err.Error())
	default:
		var details any
		if !e.isProd {
			details = err.Error()
		}
		e.serverError(w, r, err, serverMsg, details)
	}
}

func (e errorWriter) serverError(w http.ResponseWriter, r *http.Request, err error, msg string, details any) {
	e.logger.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)

	httpx.Error(w, http.StatusInternalServerError, msg, details)
}
