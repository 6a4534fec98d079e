package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PresenceRecord is the durable row tracking a user identity's online state.
// Keyed by the claimed user id; upserted on registration, flipped offline on
// disconnect, never deleted.
type PresenceRecord struct {
	ID       string    `json:"id" bson:"_id"`
	Name     string    `json:"name" bson:"name"`
	IsOnline bool      `json:"isOnline" bson:"is_online"`
	LastSeen time.Time `json:"lastSeen" bson:"last_seen"`
	SocketID string    `json:"socketId" bson:"socket_id"`
}

// LocationRecord is one durable, append-only row logging a reported position.
type LocationRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	Latitude  float64            `json:"latitude" bson:"latitude"`
	Longitude float64            `json:"longitude" bson:"longitude"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	Accuracy  *float64           `json:"accuracy,omitempty" bson:"accuracy"`
}
