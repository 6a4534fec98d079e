// Package clients holds connection wrappers for the external services the
// relay talks to: MongoDB, Redis and RabbitMQ.
package clients

import "github.com/sirupsen/logrus"

var log = logrus.StandardLogger()
