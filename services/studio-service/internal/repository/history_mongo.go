package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

const historyCollection = "histories"

type historyDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	User      bson.ObjectID `bson:"user"`
	Type      string        `bson:"type"`
	Prompt    *string       `bson:"prompt,omitempty"`
	ResultURL string        `bson:"resultUrl"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (d *historyDocument) toModel() *model.HistoryEntry {
	return &model.HistoryEntry{
		ID:        d.ID.Hex(),
		UserID:    d.User.Hex(),
		Type:      model.GenerationType(d.Type),
		Prompt:    d.Prompt,
		ResultURL: d.ResultURL,
		CreatedAt: d.CreatedAt,
	}
}

type historyMongoRepository struct {
	db *mongo.Database
}

func NewHistoryMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) HistoryRepository {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}

	_, err := db.Collection(historyCollection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create history indexes")
	}

	return &historyMongoRepository{db: db}
}

func (r *historyMongoRepository) CreateEntry(
	ctx context.Context,
	entry *model.HistoryEntry,
) (*model.HistoryEntry, error) {
	userID, err := bson.ObjectIDFromHex(entry.UserID)
	if err != nil {
		return nil, errors.New("history entry has an invalid user id")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Collection(historyCollection).InsertOne(ctx, historyDocument{
		User:      userID,
		Type:      string(entry.Type),
		Prompt:    entry.Prompt,
		ResultURL: entry.ResultURL,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}
	entry.ID = objectID.Hex()

	return entry, nil
}

func (r *historyMongoRepository) ListEntriesByUser(
	ctx context.Context,
	userID string,
) ([]*model.HistoryEntry, error) {
	entries := []*model.HistoryEntry{}

	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return entries, nil
	}

	cursor, err := r.db.Collection(historyCollection).Find(
		ctx,
		bson.M{"user": objectID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc historyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, doc.toModel())
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
