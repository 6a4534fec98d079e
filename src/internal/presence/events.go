package presence

import (
	"encoding/json"
	"time"

	"geopulse-relay-svc/src/internal/models"
)

// Inbound event names.
const (
	EventUserConnected  = "user_connected"
	EventLocationUpdate = "location_update"
)

// Outbound event names.
const (
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventActiveUsers     = "active_users"
	EventLocationUpdated = "location_updated"
)

// Envelope wraps every message on the socket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RegisterEvent is the payload of a user_connected event.
type RegisterEvent struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (e *RegisterEvent) Validate() error {
	if e.UserID == "" || e.Name == "" {
		return models.ErrMissingIdentity
	}
	return nil
}

// LocationUpdateEvent is the payload of a location_update event.
type LocationUpdateEvent struct {
	Latitude  models.Coordinate `json:"latitude"`
	Longitude models.Coordinate `json:"longitude"`
	Accuracy  models.Coordinate `json:"accuracy,omitzero"`
}

func (e *LocationUpdateEvent) Validate() error {
	if e.Latitude.Missing() || e.Longitude.Missing() {
		return models.ErrMissingPosition
	}
	return nil
}

// PeerEvent is the payload of user_joined and user_left broadcasts.
type PeerEvent struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// LocationBroadcast is the payload of a location_updated broadcast. Latitude
// and longitude carry the values exactly as the sender supplied them; the
// timestamp is taken at broadcast time, not from the stored session.
type LocationBroadcast struct {
	UserID    string            `json:"userId"`
	Name      string            `json:"name"`
	Latitude  models.Coordinate `json:"latitude"`
	Longitude models.Coordinate `json:"longitude"`
	Timestamp time.Time         `json:"timestamp"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
