package presence

import (
	"context"
	"encoding/json"
	"time"

	"geopulse-relay-svc/src/internal/location"
	"geopulse-relay-svc/src/internal/models"
	"geopulse-relay-svc/src/internal/registry"

	"github.com/sirupsen/logrus"
)

// Broadcaster is the fan-out surface the protocol needs from the socket hub.
type Broadcaster interface {
	BroadcastAll(payload []byte)
	BroadcastExcept(socketID string, payload []byte)
}

// SnapshotCache mirrors the active-users list for out-of-process readers.
type SnapshotCache interface {
	SaveActiveUsers(ctx context.Context, sessions []models.Session) error
}

// ActivityPublisher pushes join/leave activity to the message queue.
type ActivityPublisher interface {
	PublishActivity(userID, name, socketID, action string) error
}

// Service is the per-connection protocol handler. It validates inbound
// events, mutates the session registry, dispatches best-effort persistence
// and decides fan-out. The live registry is authoritative; every external
// write is fire-and-forget and can never block or undo a broadcast.
type Service interface {
	HandleMessage(socketID string, payload []byte)
	HandleDisconnect(socketID string)
	Register(socketID string, event *RegisterEvent)
	UpdateLocation(socketID string, event *LocationUpdateEvent)
	ActiveSessions() []models.Session
}

type service struct {
	registry  *registry.Registry
	presence  Repository
	locations location.Repository
	hub       Broadcaster
	cache     SnapshotCache
	activity  ActivityPublisher
}

func NewService(
	reg *registry.Registry,
	presenceRepo Repository,
	locationRepo location.Repository,
	hub Broadcaster,
	cache SnapshotCache,
	activity ActivityPublisher,
) Service {
	return &service{
		registry:  reg,
		presence:  presenceRepo,
		locations: locationRepo,
		hub:       hub,
		cache:     cache,
		activity:  activity,
	}
}

// HandleMessage decodes one inbound frame and dispatches it. Malformed input
// is dropped with a diagnostic log; there is no reply channel for validation
// errors on this protocol.
func (s *service) HandleMessage(socketID string, payload []byte) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logrus.WithError(err).WithField("socket_id", socketID).Warn("Dropping malformed frame")
		return
	}

	switch envelope.Event {
	case EventUserConnected:
		var event RegisterEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			logrus.WithError(err).WithField("socket_id", socketID).Warn("Dropping malformed user_connected payload")
			return
		}
		s.Register(socketID, &event)

	case EventLocationUpdate:
		var event LocationUpdateEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			logrus.WithError(err).WithField("socket_id", socketID).Warn("Dropping malformed location_update payload")
			return
		}
		s.UpdateLocation(socketID, &event)

	default:
		logrus.WithFields(logrus.Fields{
			"socket_id": socketID,
			"event":     envelope.Event,
		}).Debug("Ignoring unknown event")
	}
}

// Register creates (or silently replaces) the session for a connection.
func (s *service) Register(socketID string, event *RegisterEvent) {
	if err := event.Validate(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"socket_id": socketID,
			"user_id":   event.UserID,
		}).Error("Dropping registration with missing identity")
		return
	}

	now := time.Now().UTC()
	session := models.Session{
		SocketID: socketID,
		UserID:   event.UserID,
		Name:     event.Name,
		LastSeen: now,
	}
	s.registry.Put(socketID, session)

	logrus.WithFields(logrus.Fields{
		"socket_id": socketID,
		"user_id":   event.UserID,
		"name":      event.Name,
	}).Info("User registered")

	record := &models.PresenceRecord{
		ID:       event.UserID,
		Name:     event.Name,
		IsOnline: true,
		LastSeen: now,
		SocketID: socketID,
	}
	s.dispatch(func() {
		if err := s.presence.UpsertOnline(context.Background(), record); err != nil {
			logrus.WithError(err).WithField("user_id", record.ID).Error("Presence upsert failed")
		}
	})
	s.publishActivity(&session, models.ActivityConnected)

	s.broadcastExcept(socketID, EventUserJoined, PeerEvent{UserID: event.UserID, Name: event.Name})
	s.broadcastActiveUsers()
}

// UpdateLocation records a new position for a registered connection.
func (s *service) UpdateLocation(socketID string, event *LocationUpdateEvent) {
	session, ok := s.registry.Get(socketID)
	if !ok {
		logrus.WithField("socket_id", socketID).Warn("Location update for unknown session")
		return
	}

	if err := event.Validate(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"socket_id": socketID,
			"user_id":   session.UserID,
		}).Error("Dropping location update with missing coordinates")
		return
	}

	now := time.Now().UTC()
	session.Latitude = event.Latitude
	session.Longitude = event.Longitude
	session.LastSeen = now
	s.registry.Put(socketID, session)

	logrus.WithFields(logrus.Fields{
		"socket_id": socketID,
		"user_id":   session.UserID,
		"latitude":  event.Latitude.Float64(),
		"longitude": event.Longitude.Float64(),
	}).Debug("Location updated")

	record := &models.LocationRecord{
		UserID:    session.UserID,
		Latitude:  event.Latitude.Float64(),
		Longitude: event.Longitude.Float64(),
		Timestamp: now,
	}
	if !event.Accuracy.Missing() {
		accuracy := event.Accuracy.Float64()
		record.Accuracy = &accuracy
	}
	s.dispatch(func() {
		if err := s.locations.Insert(context.Background(), record); err != nil {
			logrus.WithError(err).WithField("user_id", record.UserID).Error("Location insert failed")
		}
	})

	s.broadcastAll(EventLocationUpdated, LocationBroadcast{
		UserID:    session.UserID,
		Name:      session.Name,
		Latitude:  event.Latitude,
		Longitude: event.Longitude,
		Timestamp: time.Now().UTC(),
	})
}

// HandleDisconnect tears down the session when the transport reports
// connection loss. A connection that never registered is a no-op.
func (s *service) HandleDisconnect(socketID string) {
	session, ok := s.registry.Get(socketID)
	if !ok {
		logrus.WithField("socket_id", socketID).Debug("Disconnect for unregistered connection")
		return
	}

	now := time.Now().UTC()
	s.dispatch(func() {
		if err := s.presence.MarkOffline(context.Background(), session.UserID, now); err != nil {
			logrus.WithError(err).WithField("user_id", session.UserID).Error("Mark offline failed")
		}
	})
	s.publishActivity(&session, models.ActivityDisconnected)

	s.broadcastExcept(socketID, EventUserLeft, PeerEvent{UserID: session.UserID, Name: session.Name})
	s.registry.Remove(socketID)
	s.broadcastActiveUsers()

	logrus.WithFields(logrus.Fields{
		"socket_id": socketID,
		"user_id":   session.UserID,
		"name":      session.Name,
	}).Info("User disconnected")
}

func (s *service) ActiveSessions() []models.Session {
	return s.registry.Values()
}

func (s *service) broadcastActiveUsers() {
	sessions := s.registry.Values()
	s.broadcastAll(EventActiveUsers, sessions)

	if s.cache != nil {
		s.dispatch(func() {
			if err := s.cache.SaveActiveUsers(context.Background(), sessions); err != nil {
				logrus.WithError(err).Error("Active users snapshot cache failed")
			}
		})
	}
}

func (s *service) broadcastAll(event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to encode broadcast")
		return
	}
	s.hub.BroadcastAll(payload)
}

func (s *service) broadcastExcept(socketID, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to encode broadcast")
		return
	}
	s.hub.BroadcastExcept(socketID, payload)
}

func (s *service) publishActivity(session *models.Session, action string) {
	if s.activity == nil {
		return
	}
	userID, name, socketID := session.UserID, session.Name, session.SocketID
	s.dispatch(func() {
		if err := s.activity.PublishActivity(userID, name, socketID, action); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("Activity publish failed")
		}
	})
}

// dispatch fires a persistence side effect on its own goroutine. The caller
// continues to registry mutation and broadcast without waiting, so a slow or
// hung store can never stall the live relay.
func (s *service) dispatch(fn func()) {
	go fn()
}
