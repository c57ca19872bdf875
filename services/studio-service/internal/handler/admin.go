package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/payload"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/usecase"
	"github.com/vasapolrittideah/couchnbs-api/shared/httpx"
)

type adminHTTPHandler struct {
	adminUsecase usecase.AdminUsecase
	errors       errorWriter
}

func newAdminHTTPHandler(adminUsecase usecase.AdminUsecase, errWriter errorWriter) *adminHTTPHandler {
	return &adminHTTPHandler{adminUsecase: adminUsecase, errors: errWriter}
}

// registerRoutes expects the router to already enforce Authenticate and RequireAdmin.
func (h *adminHTTPHandler) registerRoutes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Put("/users/{id}/status", h.setStatus)
	r.Put("/users/{id}/role", h.setRole)
	r.Delete("/users/{id}", h.deleteUser)
}

// listUsers accepts optional status, limit and offset query parameters.
func (h *adminHTTPHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	var params repository.FilterUsersParams

	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status := model.Status(raw)
		if !status.Valid() {
			httpx.Message(w, http.StatusBadRequest, "Invalid status value")
			return
		}
		params.Status = &status
	}

	var err error
	if params.Limit, err = parseUintQuery(query.Get("limit")); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid limit value")
		return
	}
	if params.Offset, err = parseUintQuery(query.Get("offset")); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid offset value")
		return
	}

	users, err := h.adminUsecase.ListUsers(r.Context(), params)
	if err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.JSON(w, http.StatusOK, payload.PublicUsers(users))
}

func (h *adminHTTPHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req payload.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	user, err := h.adminUsecase.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.JSON(w, http.StatusOK, payload.UserMessageResponse{
		Msg:  fmt.Sprintf("User status updated to %s", user.Status),
		User: user.Public(),
	})
}

func (h *adminHTTPHandler) setRole(w http.ResponseWriter, r *http.Request) {
	var req payload.RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	user, err := h.adminUsecase.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.JSON(w, http.StatusOK, payload.UserMessageResponse{
		Msg:  fmt.Sprintf("User role updated to %s", user.Role),
		User: user.Public(),
	})
}

func (h *adminHTTPHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminUsecase.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.Message(w, http.StatusOK, "User removed successfully")
}

func parseUintQuery(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
