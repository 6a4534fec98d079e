package logger

import (
	"os"

	"geopulse-relay-svc/src/internal/config"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger from the loaded configuration.
func Init(cfg *config.Configuration) {
	level, err := logrus.ParseLevel(cfg.Logs.Level)
	if err != nil {
		level = logrus.InfoLevel
		logrus.WithField("level", cfg.Logs.Level).Warn("Unknown log level, falling back to info")
	}
	logrus.SetLevel(level)

	if cfg.Logs.EnableJSONOutput {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.Logs.Path != "" {
		file, err := os.OpenFile(cfg.Logs.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logrus.WithError(err).Error("Failed to open log file, using stdout")
			return
		}
		logrus.SetOutput(file)
	}
}
