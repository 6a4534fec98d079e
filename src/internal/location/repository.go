// Package location persists the append-only history of reported positions.
// One row per location update; rows are never mutated or deleted here.
package location

import (
	"context"

	"geopulse-relay-svc/src/clients"
	"geopulse-relay-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, record *models.LocationRecord) error
	RecentByUser(ctx context.Context, userID string, limit int64) ([]*models.LocationRecord, error)
}

type locationRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *clients.MongoDB, collectionName string) Repository {
	collection := db.Database.Collection(collectionName)
	return &locationRepository{collection: collection}
}

func (r *locationRepository) Insert(ctx context.Context, record *models.LocationRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		logrus.WithError(err).WithField("user_id", record.UserID).Error("Failed to insert location record")
		return models.ErrDatabaseInsert
	}

	return nil
}

func (r *locationRepository) RecentByUser(ctx context.Context, userID string, limit int64) ([]*models.LocationRecord, error) {
	filter := bson.M{"user_id": userID}

	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.M{"timestamp": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to find location records")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var records []*models.LocationRecord
	for cursor.Next(ctx) {
		var record models.LocationRecord
		if err := cursor.Decode(&record); err != nil {
			logrus.WithError(err).Error("Failed to decode location record")
			continue
		}
		records = append(records, &record)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return records, nil
}
