package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/config"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/shared/provider"
)

const videoAssetsPath = "/assets/video"

// ImageGenerator turns a prompt into an inline image URI.
type ImageGenerator interface {
	Configured() bool
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// VideoProcessor runs the external video script.
type VideoProcessor interface {
	Run(ctx context.Context, input, output, kind string) error
}

// GenerationUsecase runs AI operations and keeps the per-user history log.
type GenerationUsecase interface {
	// Generate always removes params.UploadPath before returning.
	Generate(ctx context.Context, params GenerateParams) (*model.HistoryEntry, error)
	History(ctx context.Context, userID string) ([]*model.HistoryEntry, error)
}

type GenerateParams struct {
	UserID string
	Type   string
	Prompt *string
	// UploadPath is the saved input file, empty when nothing was uploaded.
	UploadPath string
}

type generationUsecase struct {
	historyRepo repository.HistoryRepository
	images      ImageGenerator
	processor   VideoProcessor
	cfg         *config.Config
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewGenerationUsecase(
	historyRepo repository.HistoryRepository,
	images ImageGenerator,
	processor VideoProcessor,
	cfg *config.Config,
	logger *zerolog.Logger,
) GenerationUsecase {
	return &generationUsecase{
		historyRepo: historyRepo,
		images:      images,
		processor:   processor,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (u *generationUsecase) Generate(ctx context.Context, params GenerateParams) (*model.HistoryEntry, error) {
	if params.UploadPath != "" {
		defer u.removeUpload(params.UploadPath)
	}

	if params.Type == "" {
		return nil, ErrMissingType
	}

	kind := model.GenerationType(params.Type)

	var (
		resultURL string
		err       error
	)
	switch {
	case kind == model.TypeImageGeneration:
		resultURL, err = u.generateImage(ctx, params.Prompt)
	case kind.IsVideo():
		resultURL, err = u.processVideo(ctx, kind, params.UploadPath)
	default:
		return nil, &UnknownTypeError{Type: params.Type}
	}
	if err != nil {
		return nil, err
	}

	entry, err := u.historyRepo.CreateEntry(ctx, &model.HistoryEntry{
		UserID:    params.UserID,
		Type:      kind,
		Prompt:    params.Prompt,
		ResultURL: resultURL,
		CreatedAt: u.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save history entry: %w", err)
	}

	return entry, nil
}

func (u *generationUsecase) generateImage(ctx context.Context, prompt *string) (string, error) {
	if !u.images.Configured() {
		return "", fmt.Errorf("%w: stability api key is missing", ErrMisconfigured)
	}

	var text string
	if prompt != nil {
		text = *prompt
	}

	uri, err := u.images.GenerateImage(ctx, text)
	if err != nil {
		if errors.Is(err, provider.ErrMissingAPIKey) {
			return "", fmt.Errorf("%w: %v", ErrMisconfigured, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return uri, nil
}

func (u *generationUsecase) processVideo(ctx context.Context, kind model.GenerationType, input string) (string, error) {
	if input == "" {
		return "", ErrFileRequired
	}

	outputDir := filepath.Join(u.cfg.Storage.PublicDir, filepath.FromSlash(videoAssetsPath))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := fmt.Sprintf("upscaled-%d.mp4", u.now().UnixMilli())
	output := filepath.Join(outputDir, filename)

	if err := u.processor.Run(ctx, input, output, string(kind)); err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			u.logger.Warn().Err(rmErr).Str("path", output).Msg("failed to remove partial output")
		}
		return "", fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	return videoAssetsPath + "/" + filename, nil
}

func (u *generationUsecase) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		u.logger.Warn().Err(err).Str("path", path).Msg("failed to remove uploaded file")
	}
}

func (u *generationUsecase) History(ctx context.Context, userID string) ([]*model.HistoryEntry, error) {
	return u.historyRepo.ListEntriesByUser(ctx, userID)
}
