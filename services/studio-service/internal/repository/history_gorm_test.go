package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

func TestHistoryGormNewestFirstPerUser(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryGormRepository(nopLogger(), newTestDB(t))

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	prompt := "a sunset"

	_, err := repo.CreateEntry(ctx, &model.HistoryEntry{
		UserID:    "u1",
		Type:      model.TypeImageGeneration,
		Prompt:    &prompt,
		ResultURL: "data:image/jpeg;base64,AAAA",
		CreatedAt: base,
	})
	require.NoError(t, err)

	second, err := repo.CreateEntry(ctx, &model.HistoryEntry{
		UserID:    "u1",
		Type:      model.Type4KUpscale,
		ResultURL: "/assets/video/upscaled-1.mp4",
		CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)
	require.NotEmpty(t, second.ID)

	_, err = repo.CreateEntry(ctx, &model.HistoryEntry{
		UserID:    "u2",
		Type:      model.TypeVideoFilter,
		ResultURL: "/assets/video/upscaled-2.mp4",
		CreatedAt: base.Add(2 * time.Minute),
	})
	require.NoError(t, err)

	entries, err := repo.ListEntriesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.Type4KUpscale, entries[0].Type)
	assert.Nil(t, entries[0].Prompt)
	assert.Equal(t, model.TypeImageGeneration, entries[1].Type)
	require.NotNil(t, entries[1].Prompt)
	assert.Equal(t, prompt, *entries[1].Prompt)

	empty, err := repo.ListEntriesByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
