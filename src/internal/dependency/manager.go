package dependency

import (
	"geopulse-relay-svc/src/clients"
	"geopulse-relay-svc/src/internal/cache"
	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/hub"
	"geopulse-relay-svc/src/internal/location"
	"geopulse-relay-svc/src/internal/presence"
	"geopulse-relay-svc/src/internal/registry"

	"github.com/gin-gonic/gin"
	"github.com/streadway/amqp"
)

type Manager struct {
	Router            *gin.Engine
	Config            *config.Configuration
	Mongodb           *clients.MongoDB
	Redis             *clients.RedisClient
	RabbitMQ          *clients.RabbitMQ
	Hub               *hub.Hub
	Registry          *registry.Registry
	PresenceService   presence.Service
	PresenceHandler   presence.Handler
	CacheService      cache.Service
	ActivityPublisher *clients.ActivityPublisher
	LocationRepo      location.Repository
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	presenceRepo := presence.NewRepository(mongodb, cfg.Database.PresenceCollection)
	locationRepo := location.NewRepository(mongodb, cfg.Database.LocationCollection)
	sessionRegistry := registry.New()
	socketHub := hub.New(&cfg.Socket)

	// The queue is optional; the relay works without it.
	var channel *amqp.Channel
	if rabbitMQ != nil {
		channel = rabbitMQ.Channel
	}
	activityPublisher := clients.NewActivityPublisher(cfg, channel)

	presenceService := presence.NewService(
		sessionRegistry,
		presenceRepo,
		locationRepo,
		socketHub,
		cacheService,
		activityPublisher,
	)
	socketHub.SetHandler(presenceService)

	presenceHandler := presence.NewHandler(cfg, presenceService, locationRepo, presenceRepo, cacheService)

	return &Manager{
		Router:            router,
		Config:            cfg,
		Mongodb:           mongodb,
		Redis:             redisClient,
		RabbitMQ:          rabbitMQ,
		Hub:               socketHub,
		Registry:          sessionRegistry,
		PresenceService:   presenceService,
		PresenceHandler:   presenceHandler,
		CacheService:      cacheService,
		ActivityPublisher: activityPublisher,
		LocationRepo:      locationRepo,
	}
}
