package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs     LogsSettings   `mapstructure:"logs"`
	App      Application    `mapstructure:"app"`
	Database Database       `mapstructure:"database"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Redis    Redis          `mapstructure:"redis"`
	Server   ServerSettings `mapstructure:"server"`
	Socket   SocketSettings `mapstructure:"socket"`
	Cache    CacheConfig    `mapstructure:"cache"`
	History  HistoryConfig  `mapstructure:"history"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name     string `mapstructure:"name"`
	Timeout  int    `mapstructure:"timeout"`
	Version  string `mapstructure:"version"`
	HostLink string `mapstructure:"host-link"`
}

type Database struct {
	Url                string `mapstructure:"url"`
	DbName             string `mapstructure:"dbname"`
	PresenceCollection string `mapstructure:"presence-collection"`
	LocationCollection string `mapstructure:"location-collection"`
	Timeout            int    `mapstructure:"timeout"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url            string `mapstructure:"url"`
	Exchange       string `mapstructure:"exchange"`
	ExchangeType   string `mapstructure:"exchange-type"`
	ActivityQueue  string `mapstructure:"activity-queue"`
	RoutingKey     string `mapstructure:"routing-key"`
	ReconnectDelay int    `mapstructure:"reconnect-delay"`
	Timeout        int    `mapstructure:"timeout"`
	Durable        bool   `mapstructure:"durable"`
	AutoDelete     bool   `mapstructure:"auto-delete"`
	Internal       bool   `mapstructure:"internal"`
	NoWait         bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type SocketSettings struct {
	WriteWaitSeconds   int   `mapstructure:"write-wait-seconds"`
	PongWaitSeconds    int   `mapstructure:"pong-wait-seconds"`
	PingPeriodSeconds  int   `mapstructure:"ping-period-seconds"`
	MaxMessageSize     int64 `mapstructure:"max-message-size"`
	SendBufferSize     int   `mapstructure:"send-buffer-size"`
	ShutdownTimeoutSec int   `mapstructure:"shutdown-timeout-seconds"`
}

type CacheConfig struct {
	ActiveUsersKey               string `mapstructure:"active-users-key"`
	ActiveUsersExpirationMinutes int    `mapstructure:"active-users-expiration-minutes"`
}

type HistoryConfig struct {
	DefaultLimit int `mapstructure:"default-limit"`
	MaxLimit     int `mapstructure:"max-limit"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	port := os.Getenv("PORT")
	if port != "" {
		cfg.Server.Port = port
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
