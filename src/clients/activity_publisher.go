package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// ActivityPublisher publishes presence activity events to RabbitMQ for
// downstream consumers. Publishing is best-effort: a failure is logged and
// never surfaced to the live relay.
type ActivityPublisher struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

func NewActivityPublisher(cfg *config.Configuration, channel *amqp.Channel) *ActivityPublisher {
	return &ActivityPublisher{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

// PublishActivity publishes a join/leave activity message.
func (p *ActivityPublisher) PublishActivity(userID, name, socketID, action string) error {
	if p.channel == nil {
		return nil
	}

	message := models.ActivityMessage{
		UserID:    userID,
		Name:      name,
		SocketID:  socketID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"socket_id":   socketID,
		"action":      action,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
