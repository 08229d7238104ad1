package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for request statistics; read back by the health service.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

const errorLogSize = 50

// HealthMarker records request stats in Redis (skip /health* and favicon).
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		ctx := context.Background()
		rdb.Set(ctx, KeyLastReq, b, 0)
		rdb.Incr(ctx, KeyReqTotal)

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		rdb.Incr(ctx, KeyResCount)
		rdb.IncrByFloat(ctx, KeyResTime, float64(ms))
		if status := c.Response().StatusCode(); status >= 500 {
			rdb.Incr(ctx, KeyReqErrors)
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now(),
				"path":     path,
				"method":   c.Method(),
				"status":   status,
				"trace_id": GetTraceID(c),
			})
			rdb.LPush(ctx, KeyErrorLog, entry)
			rdb.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
		}
		return err
	}
}
