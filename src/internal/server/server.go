package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geopulse-relay-svc/src/clients"
	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg  *config.Configuration
	deps *dependency.Manager
}

// New builds all external clients and wires the dependency graph. MongoDB
// and RabbitMQ being down does not prevent startup; the live relay works
// without them and their failures are logged per call.
func New(cfg *config.Configuration) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Invalid MongoDB configuration")
	}

	redisClient := clients.NewRedisClient(&cfg.Redis)

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, continuing without activity events")
		rabbitMQ = nil
	} else if err := rabbitMQ.SetupQueue(); err != nil {
		log.WithError(err).Warn("RabbitMQ exchange setup failed, continuing without activity events")
		rabbitMQ = nil
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	SetupRoutes(deps)

	return &Server{cfg: cfg, deps: deps}
}

// Start runs the HTTP server and blocks until a termination signal, then
// shuts the hub and server down gracefully.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.deps.Router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on port %s", s.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down...")
	}

	shutdownTimeout := time.Duration(s.cfg.Socket.ShutdownTimeoutSec) * time.Second
	if err := s.deps.Hub.Shutdown(shutdownTimeout); err != nil {
		log.WithError(err).Warn("Hub shutdown incomplete")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
		return err
	}

	s.closeClients(ctx)
	log.Info("Shutdown complete")
	return nil
}

func (s *Server) closeClients(ctx context.Context) {
	if s.deps.RabbitMQ != nil {
		s.deps.RabbitMQ.Close()
	}
	s.deps.Redis.Close()
	s.deps.Mongodb.Close(ctx)
}
