package presence

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"geopulse-relay-svc/src/internal/cache"
	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/location"
	"geopulse-relay-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	GetActiveUsers(c *gin.Context)
	GetActiveUserCount(c *gin.Context)
	GetUserPresence(c *gin.Context)
	GetLocationHistory(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	service      Service
	locations    location.Repository
	presences    Repository
	cacheService cache.Service
}

func NewHandler(cfg *config.Configuration, service Service, locations location.Repository,
	presences Repository, cacheService cache.Service) Handler {
	return &handler{
		config:       cfg,
		service:      service,
		locations:    locations,
		presences:    presences,
		cacheService: cacheService,
	}
}

// GetActiveUsers serves the active-users snapshot, preferring the Redis
// mirror and falling back to the authoritative in-memory registry. A
// fallback read repopulates the mirror.
func (h *handler) GetActiveUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	cached, err := h.cacheService.GetActiveUsers(ctx)
	if err == nil && cached != nil {
		logrus.WithField("count", len(cached)).Debug("Active users retrieved from cache")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    cached,
			"count":   len(cached),
		})
		return
	}

	sessions := h.service.ActiveSessions()
	h.cacheService.SaveActiveUsers(ctx, sessions)

	logrus.WithField("count", len(sessions)).Debug("Active users retrieved from registry")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessions,
		"count":   len(sessions),
	})
}

func (h *handler) GetActiveUserCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(h.service.ActiveSessions()),
	})
}

// GetUserPresence returns the durable presence record for one user,
// enriched with the live session position when the user is connected.
func (h *handler) GetUserPresence(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId is required",
		})
		return
	}

	record, err := h.presences.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get presence record")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve user presence",
			"message": err.Error(),
		})
		return
	}

	connected := false
	var position gin.H
	for _, session := range h.service.ActiveSessions() {
		if session.UserID != userID {
			continue
		}
		connected = true
		if session.HasPosition() {
			position = gin.H{
				"latitude":  session.Latitude,
				"longitude": session.Longitude,
			}
		}
	}

	response := gin.H{
		"success":   true,
		"data":      record,
		"connected": connected,
	}
	if position != nil {
		response["position"] = position
	}
	c.JSON(http.StatusOK, response)
}

// GetLocationHistory returns the most recent persisted positions for one
// user, newest first.
func (h *handler) GetLocationHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId is required",
		})
		return
	}

	limit := parseIntParam(c, "limit", h.config.History.DefaultLimit)
	if limit <= 0 {
		limit = h.config.History.DefaultLimit
	}
	if limit > h.config.History.MaxLimit {
		limit = h.config.History.MaxLimit
	}

	records, err := h.locations.RecentByUser(ctx, userID, int64(limit))
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get location history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve location history",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}
