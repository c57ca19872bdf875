package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/shared/provider"
)

type stubImages struct {
	configured bool
	generate   func(ctx context.Context, prompt string) (string, error)
}

func (s *stubImages) Configured() bool { return s.configured }

func (s *stubImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, prompt)
}

type stubProcessor struct {
	run   func(ctx context.Context, input, output, kind string) error
	calls int
}

func (s *stubProcessor) Run(ctx context.Context, input, output, kind string) error {
	s.calls++
	return s.run(ctx, input, output, kind)
}

type generationFixture struct {
	history   repository.HistoryRepository
	images    *stubImages
	processor *stubProcessor
	usecase   *generationUsecase
	uploadDir string
	publicDir string
	now       time.Time
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()

	logger := zerolog.Nop()
	publicDir := t.TempDir()
	cfg := newTestConfig(t, map[string]string{"PUBLIC_DIR": publicDir})

	f := &generationFixture{
		history:   repository.NewHistoryGormRepository(&logger, newTestDB(t)),
		images:    &stubImages{},
		processor: &stubProcessor{},
		uploadDir: t.TempDir(),
		publicDir: publicDir,
		now:       time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.usecase = NewGenerationUsecase(f.history, f.images, f.processor, cfg, &logger).(*generationUsecase)
	f.usecase.now = func() time.Time { return f.now }

	return f
}

func (f *generationFixture) upload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(f.uploadDir, fmt.Sprintf("video-%d.mp4", time.Now().UnixNano()))
	require.NoError(t, os.WriteFile(path, []byte("raw video"), 0o600))
	return path
}

func (f *generationFixture) entries(t *testing.T, userID string) []*model.HistoryEntry {
	t.Helper()
	entries, err := f.usecase.History(context.Background(), userID)
	require.NoError(t, err)
	return entries
}

func TestGenerateRequiresType(t *testing.T) {
	f := newGenerationFixture(t)
	upload := f.upload(t)

	_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", UploadPath: upload})
	require.ErrorIs(t, err, ErrMissingType)
	assert.NoFileExists(t, upload)
}

func TestGenerateUnknownType(t *testing.T) {
	f := newGenerationFixture(t)
	upload := f.upload(t)

	_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "3d-character", UploadPath: upload})
	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "3d-character", unknown.Type)
	require.ErrorIs(t, err, ErrUnknownType)
	assert.NoFileExists(t, upload)
}

func TestGenerateVideoWithoutFile(t *testing.T) {
	f := newGenerationFixture(t)

	_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "4k-upscale"})
	require.ErrorIs(t, err, ErrFileRequired)
	assert.Zero(t, f.processor.calls)
	assert.Empty(t, f.entries(t, "u1"))
}

func TestGenerateVideoProcessingFailureRemovesUpload(t *testing.T) {
	f := newGenerationFixture(t)
	upload := f.upload(t)

	f.processor.run = func(_ context.Context, input, output, kind string) error {
		assert.FileExists(t, input)
		require.NoError(t, os.WriteFile(output, []byte("partial"), 0o600))
		return errors.New("exit status 1: ffmpeg missing")
	}

	_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "4k-upscale", UploadPath: upload})
	require.ErrorIs(t, err, ErrProcessingFailed)
	assert.Contains(t, err.Error(), "ffmpeg missing")
	assert.NoFileExists(t, upload)
	assert.NoFileExists(t, filepath.Join(f.publicDir, "assets", "video", fmt.Sprintf("upscaled-%d.mp4", f.now.UnixMilli())))
	assert.Empty(t, f.entries(t, "u1"))
}

func TestGenerateVideoSuccess(t *testing.T) {
	f := newGenerationFixture(t)
	upload := f.upload(t)

	var gotInput, gotOutput, gotKind string
	f.processor.run = func(_ context.Context, input, output, kind string) error {
		gotInput, gotOutput, gotKind = input, output, kind
		return os.WriteFile(output, []byte("processed"), 0o600)
	}

	entry, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "beauty-filter", UploadPath: upload})
	require.NoError(t, err)

	filename := fmt.Sprintf("upscaled-%d.mp4", f.now.UnixMilli())
	assert.Equal(t, "/assets/video/"+filename, entry.ResultURL)
	assert.Equal(t, upload, gotInput)
	assert.Equal(t, filepath.Join(f.publicDir, "assets", "video", filename), gotOutput)
	assert.Equal(t, "beauty-filter", gotKind)
	assert.FileExists(t, gotOutput)
	assert.NoFileExists(t, upload)

	entries := f.entries(t, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t, model.TypeBeautyFilter, entries[0].Type)
	assert.Equal(t, entry.ResultURL, entries[0].ResultURL)
}

func TestGenerateImageWithoutKeyCreatesNoHistory(t *testing.T) {
	f := newGenerationFixture(t)
	f.images.configured = false

	prompt := "a cat"
	_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "image-generation", Prompt: &prompt})
	require.ErrorIs(t, err, ErrMisconfigured)
	assert.Empty(t, f.entries(t, "u1"))
}

func TestGenerateImageSuccess(t *testing.T) {
	f := newGenerationFixture(t)
	f.images.configured = true

	var gotPrompt string
	f.images.generate = func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "data:image/jpeg;base64,AAAA", nil
	}

	prompt := "a cat on a couch"
	entry, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "image-generation", Prompt: &prompt})
	require.NoError(t, err)
	assert.Equal(t, "a cat on a couch", gotPrompt)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", entry.ResultURL)

	entries := f.entries(t, "u1")
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Prompt)
	assert.Equal(t, prompt, *entries[0].Prompt)
}

func TestGenerateImageUpstreamFailure(t *testing.T) {
	f := newGenerationFixture(t)
	f.images.configured = true
	f.images.generate = func(context.Context, string) (string, error) {
		return "", fmt.Errorf("%w: stability api error: bad prompt", provider.ErrUpstream)
	}
	upload := f.upload(t)

	_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "image-generation", UploadPath: upload})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "bad prompt")
	assert.NoFileExists(t, upload)
	assert.Empty(t, f.entries(t, "u1"))
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newGenerationFixture(t)
	f.images.configured = true
	f.images.generate = func(_ context.Context, prompt string) (string, error) {
		return "data:image/jpeg;base64," + prompt, nil
	}

	for _, p := range []string{"first", "second"} {
		prompt := p
		_, err := f.usecase.Generate(context.Background(), GenerateParams{UserID: "u1", Type: "image-generation", Prompt: &prompt})
		require.NoError(t, err)
		f.now = f.now.Add(time.Minute)
	}

	entries := f.entries(t, "u1")
	require.Len(t, entries, 2)
	assert.Equal(t, "second", *entries[0].Prompt)
	assert.Equal(t, "first", *entries[1].Prompt)
	assert.Empty(t, f.entries(t, "u2"))
}
