package presence

import (
	"context"
	"errors"
	"time"

	"geopulse-relay-svc/src/clients"
	"geopulse-relay-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	UpsertOnline(ctx context.Context, record *models.PresenceRecord) error
	MarkOffline(ctx context.Context, userID string, lastSeen time.Time) error
	GetByUserID(ctx context.Context, userID string) (*models.PresenceRecord, error)
}

type presenceRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *clients.MongoDB, collectionName string) Repository {
	collection := db.Database.Collection(collectionName)
	return &presenceRepository{collection: collection}
}

func (r *presenceRepository) UpsertOnline(ctx context.Context, record *models.PresenceRecord) error {
	filter := bson.M{"_id": record.ID}
	update := bson.M{
		"$set": bson.M{
			"name":      record.Name,
			"is_online": true,
			"last_seen": record.LastSeen,
			"socket_id": record.SocketID,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("user_id", record.ID).Error("Failed to upsert presence record")
		return models.ErrDatabaseUpdate
	}

	return nil
}

func (r *presenceRepository) MarkOffline(ctx context.Context, userID string, lastSeen time.Time) error {
	filter := bson.M{"_id": userID}
	update := bson.M{
		"$set": bson.M{
			"is_online": false,
			"last_seen": lastSeen,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to mark user offline")
		return models.ErrDatabaseUpdate
	}

	return nil
}

func (r *presenceRepository) GetByUserID(ctx context.Context, userID string) (*models.PresenceRecord, error) {
	var record models.PresenceRecord
	filter := bson.M{"_id": userID}

	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrRecordNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get presence record")
		return nil, models.ErrDatabaseQuery
	}

	return &record, nil
}
