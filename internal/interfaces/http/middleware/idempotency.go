package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/redis"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
)

// ResponseStore persists replayable responses keyed by operator and idempotency key.
type ResponseStore interface {
	Load(ctx context.Context, scope, key string) (*redis.StoredResponse, error)
	Acquire(ctx context.Context, scope, key string) error
	Save(ctx context.Context, scope, key string, resp *redis.StoredResponse) error
	Release(ctx context.Context, scope, key string) error
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response of a request whose
// Idempotency-Key was already processed, so retried link creations do not
// create a second link at PayU.
func IdempotencyMiddleware(store ResponseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scope := c.GetString(OperatorIDKey) + ":" + c.Request.Method + ":" + c.FullPath()

		stored, err := store.Load(ctx, scope, key)
		switch {
		case err == nil:
			c.Header(IdempotencyHitHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		case errors.Is(err, redis.ErrInFlight):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "idempotency_conflict",
				"message": "Request already in progress",
			})
			return
		case !errors.Is(err, redis.ErrNoResponse):
			logger.Warn(ctx, "Idempotency store unavailable, processing without it", zap.Error(err))
			c.Next()
			return
		}

		if err := store.Acquire(ctx, scope, key); err != nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "idempotency_conflict",
				"message": "Request in progress",
			})
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			err = store.Save(ctx, scope, key, &redis.StoredResponse{
				Status:      status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			})
		} else {
			err = store.Release(ctx, scope, key)
		}
		if err != nil {
			logger.Warn(ctx, "Failed to update idempotency record", zap.Error(err))
		}
	}
}
