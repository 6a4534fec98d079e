package models

import "time"

// Session is the live, in-memory record of one connected, registered client.
// It exists exactly as long as the underlying socket connection.
type Session struct {
	SocketID  string     `json:"socketId"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Latitude  Coordinate `json:"latitude,omitzero"`
	Longitude Coordinate `json:"longitude,omitzero"`
	LastSeen  time.Time  `json:"lastSeen"`
}

// HasPosition reports whether the session has received at least one
// location update.
func (s *Session) HasPosition() bool {
	return !s.Latitude.IsZero() && !s.Longitude.IsZero()
}
