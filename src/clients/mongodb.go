package clients

import (
	"context"
	"time"

	"geopulse-relay-svc/src/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	cfg      *config.Database
}

func NewMongoDB(cfg *config.Database) (*MongoDB, error) {
	log.WithField("url", cfg.Url).Info("Connecting to MongoDB...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Url))
	if err != nil {
		log.WithError(err).Error("Failed to connect to MongoDB")
		return nil, err
	}

	db := &MongoDB{
		Client:   client,
		Database: client.Database(cfg.DbName),
		cfg:      cfg,
	}

	// Connectivity check is a startup diagnostic only; the relay must come up
	// even when the database is unreachable.
	go db.pingOnStartup()

	return db, nil
}

func (m *MongoDB) pingOnStartup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(m.cfg.Timeout)*time.Second)
	defer cancel()

	if err := m.Client.Ping(ctx, nil); err != nil {
		log.WithError(err).Error("MongoDB connectivity check failed")
		return
	}
	log.Info("MongoDB connectivity check succeeded")
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.Client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("Failed to disconnect from MongoDB")
		return err
	}
	log.Info("MongoDB connection closed")
	return nil
}
