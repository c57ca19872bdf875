package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/payload"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/usecase"
	"github.com/vasapolrittideah/couchnbs-api/shared/httpx"
	"github.com/vasapolrittideah/couchnbs-api/shared/middleware"
)

const (
	// Form fields are small; everything above the file limit is rejected.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

type aiHTTPHandler struct {
	generationUsecase usecase.GenerationUsecase
	chatUsecase       usecase.ChatUsecase
	sessions          middleware.SessionVerifier
	uploadDir         string
	maxUploadBytes    int64
	errors            errorWriter
	logger            *zerolog.Logger
	now               func() time.Time
}

func newAIHTTPHandler(
	generationUsecase usecase.GenerationUsecase,
	chatUsecase usecase.ChatUsecase,
	sessions middleware.SessionVerifier,
	uploadDir string,
	maxUploadBytes int64,
	errWriter errorWriter,
	logger *zerolog.Logger,
) *aiHTTPHandler {
	return &aiHTTPHandler{
		generationUsecase: generationUsecase,
		chatUsecase:       chatUsecase,
		sessions:          sessions,
		uploadDir:         uploadDir,
		maxUploadBytes:    maxUploadBytes,
		errors:            errWriter,
		logger:            logger,
		now:               time.Now,
	}
}

func (h *aiHTTPHandler) registerRoutes(r chi.Router) {
	r.Post("/chat", h.chat)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.sessions))
		r.Post("/generate", h.generate)
		r.Get("/history", h.history)
	})
}

func (h *aiHTTPHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req payload.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	reply, err := h.chatUsecase.Chat(r.Context(), req.Message, req.ProviderHistory())
	if err != nil {
		h.errors.write(w, r, err, "Server error during chat")
		return
	}

	httpx.JSON(w, http.StatusOK, payload.ChatResponse{Reply: reply})
}

func (h *aiHTTPHandler) generate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	params := usecase.GenerateParams{UserID: claims.User.ID}

	// Prompt-only generations may arrive as JSON; there is no upload then.
	if isJSONRequest(r) {
		var req payload.GenerateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			httpx.Message(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
		params.Type = strings.TrimSpace(req.Type)
		params.Prompt = req.Prompt
		h.runGeneration(w, r, params)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Message(w, http.StatusBadRequest, h.tooLargeMessage())
			return
		}
		httpx.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}()

	params.Type = strings.TrimSpace(r.FormValue("type"))
	if values, ok := r.MultipartForm.Value["prompt"]; ok && len(values) > 0 {
		prompt := values[0]
		params.Prompt = &prompt
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > h.maxUploadBytes {
			httpx.Message(w, http.StatusBadRequest, h.tooLargeMessage())
			return
		}
		params.UploadPath, err = h.saveUpload(file, header)
		if err != nil {
			h.errors.write(w, r, err, "Server error during AI processing")
			return
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		httpx.Error(w, http.StatusBadRequest, "Invalid file upload", err.Error())
		return
	}

	h.runGeneration(w, r, params)
}

func (h *aiHTTPHandler) runGeneration(w http.ResponseWriter, r *http.Request, params usecase.GenerateParams) {
	entry, err := h.generationUsecase.Generate(r.Context(), params)
	if err != nil {
		if errors.Is(err, usecase.ErrMisconfigured) {
			h.errors.serverError(w, r, err, msgStabilityMissing, nil)
			return
		}
		h.errors.write(w, r, err, "Server error during AI processing")
		return
	}

	httpx.JSON(w, http.StatusOK, payload.GenerateResponse{Success: true, ResultURL: entry.ResultURL})
}

// saveUpload copies the uploaded file to the upload directory as
// video-<unixmillis><ext>. A numeric suffix is added when two uploads land in
// the same millisecond.
func (h *aiHTTPHandler) saveUpload(src multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	stamp := h.now().UnixMilli()

	var (
		dst  *os.File
		path string
		err  error
	)
	for attempt := 0; attempt < 10; attempt++ {
		name := fmt.Sprintf("video-%d%s", stamp, ext)
		if attempt > 0 {
			name = fmt.Sprintf("video-%d-%d%s", stamp, attempt, ext)
		}
		path = filepath.Join(h.uploadDir, name)

		dst, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil || !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path, nil
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func (h *aiHTTPHandler) tooLargeMessage() string {
	if h.maxUploadBytes%(1<<20) == 0 {
		return fmt.Sprintf("File too large. Maximum size is %dMB", h.maxUploadBytes>>20)
	}
	return fmt.Sprintf("File too large. Maximum size is %d bytes", h.maxUploadBytes)
}

func (h *aiHTTPHandler) history(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	entries, err := h.generationUsecase.History(r.Context(), claims.User.ID)
	if err != nil {
		h.errors.write(w, r, err, msgServerError)
		return
	}

	httpx.JSON(w, http.StatusOK, entries)
}
