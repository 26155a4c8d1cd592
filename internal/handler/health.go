package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// BrokerConn is satisfied by *amqp.Connection.
type BrokerConn interface {
	IsClosed() bool
}

type HealthHandler struct {
	db     Pinger
	redis  RedisPinger
	broker BrokerConn
}

// NewHealthHandler takes a nil broker when messaging is disabled; readiness
// then ignores RabbitMQ.
func NewHealthHandler(db Pinger, redisClient RedisPinger, broker BrokerConn) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, broker: broker}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "postgres": "unavailable"})
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "redis": "unavailable"})
		return
	}

	resp := gin.H{"status": "ok", "postgres": "connected", "redis": "connected", "rabbitmq": "disabled"}
	if h.broker != nil {
		if h.broker.IsClosed() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "rabbitmq": "unavailable"})
			return
		}
		resp["rabbitmq"] = "connected"
	}
	c.JSON(http.StatusOK, resp)
}
