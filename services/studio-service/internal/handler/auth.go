package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/payload"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/usecase"
	"github.com/vasapolrittideah/couchnbs-api/shared/httpx"
	"github.com/vasapolrittideah/couchnbs-api/shared/middleware"
	"github.com/vasapolrittideah/couchnbs-api/shared/validator"
)

const (
	msgSignupAck     = "Signup successful. Please verify your email, then wait for admin approval."
	msgResendAck     = "Verification email sent"
	msgForgotAck     = "Password reset email sent"
	msgResetAck      = "Password has been reset successfully"
	msgLoginRequired = "Please provide email and password"
	msgEmailRequired = "Please provide a valid email address"
	msgNoAccount     = "No account found with this email"
)

type authHTTPHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	sessions             middleware.SessionVerifier
	validator            *validator.Validator
	errors               errorWriter
	logger               *zerolog.Logger
}

func newAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	sessions middleware.SessionVerifier,
	validator *validator.Validator,
	errWriter errorWriter,
	logger *zerolog.Logger,
) *authHTTPHandler {
	return &authHTTPHandler{
		authUsecase:          authUsecase,
		passwordResetUsecase: passwordResetUsecase,
		sessions:             sessions,
		validator:            validator,
		errors:               errWriter,
		logger:               logger,
	}
}

func (h *authHTTPHandler) registerRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.With(middleware.Authenticate(h.sessions)).Get("/user", h.currentUser)
	r.Get("/verify-email/{token}", h.verifyEmail)
	r.Post("/resend-verification", h.resendVerification)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password/{token}", h.resetPassword)
}

func (h *authHTTPHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	err := h.authUsecase.Signup(r.Context(), usecase.SignupParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.errors.write(w, r, err, "Server error during signup")
		return
	}

	httpx.Message(w, http.StatusOK, msgSignupAck)
}

func (h *authHTTPHandler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgLoginRequired)
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.write(w, r, err, "Server error during login")
		return
	}

	httpx.JSON(w, http.StatusOK, payload.NewLoginResponse(result.Token, result.User))
}

func (h *authHTTPHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	user, err := h.authUsecase.GetCurrentUser(r.Context(), claims.User.ID)
	if err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *authHTTPHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	err := h.authUsecase.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	switch {
	case err == nil:
		renderVerifyPage(w, http.StatusOK, verifySucceeded)
	case errors.Is(err, usecase.ErrInvalidToken):
		renderVerifyPage(w, http.StatusBadRequest, verifyInvalid)
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to verify email")
		renderVerifyPage(w, http.StatusInternalServerError, verifyFailed)
	}
}

func (h *authHTTPHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.authUsecase.ResendVerification(r.Context(), email); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			httpx.Message(w, http.StatusBadRequest, msgNoAccount)
			return
		}
		h.errors.write(w, r, err, "Failed to send verification email")
		return
	}

	httpx.Message(w, http.StatusOK, msgResendAck)
}

func (h *authHTTPHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), email); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			httpx.Message(w, http.StatusBadRequest, msgNoAccount)
			return
		}
		h.errors.write(w, r, err, "Failed to send password reset email")
		return
	}

	httpx.Message(w, http.StatusOK, msgForgotAck)
}

func (h *authHTTPHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	err := h.passwordResetUsecase.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.Message(w, http.StatusOK, msgResetAck)
}

func (h *authHTTPHandler) decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req payload.EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return "", false
	}
	if err := h.validator.Struct(req); err != nil {
		var details any = err.Error()
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			details = fields
		}
		httpx.Error(w, http.StatusBadRequest, msgEmailRequired, details)
		return "", false
	}

	return req.Email, true
}
