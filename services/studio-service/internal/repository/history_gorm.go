package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

type historyRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"column:user_id;not null;index:idx_histories_user_created,priority:1"`
	Type      string `gorm:"not null"`
	Prompt    *string
	ResultURL string    `gorm:"column:result_url;type:text"`
	CreatedAt time.Time `gorm:"not null;index:idx_histories_user_created,priority:2,sort:desc"`
}

func (historyRecord) TableName() string { return "histories" }

func (m *historyRecord) toModel() *model.HistoryEntry {
	return &model.HistoryEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      model.GenerationType(m.Type),
		Prompt:    m.Prompt,
		ResultURL: m.ResultURL,
		CreatedAt: m.CreatedAt,
	}
}

type historyGormRepository struct {
	db *gorm.DB
}

func NewHistoryGormRepository(logger *zerolog.Logger, db *gorm.DB) HistoryRepository {
	if err := db.AutoMigrate(&historyRecord{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate histories table")
	}

	return &historyGormRepository{db: db}
}

func (r *historyGormRepository) CreateEntry(
	ctx context.Context,
	entry *model.HistoryEntry,
) (*model.HistoryEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	m := &historyRecord{
		ID:        uuid.NewString(),
		UserID:    entry.UserID,
		Type:      string(entry.Type),
		Prompt:    entry.Prompt,
		ResultURL: entry.ResultURL,
		CreatedAt: entry.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}

	entry.ID = m.ID
	return entry, nil
}

func (r *historyGormRepository) ListEntriesByUser(
	ctx context.Context,
	userID string,
) ([]*model.HistoryEntry, error) {
	var records []historyRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*model.HistoryEntry, 0, len(records))
	for i := range records {
		entries = append(entries, records[i].toModel())
	}
	return entries, nil
}
