package models

import "time"

// Presence activity actions published to the message queue.
const (
	ActivityConnected    = "connected"
	ActivityDisconnected = "disconnected"
)

// ActivityMessage is the presence activity event published to RabbitMQ for
// downstream consumers.
type ActivityMessage struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	SocketID  string    `json:"socket_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
