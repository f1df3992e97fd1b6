package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"provledger/internal/logger"
)

// LoggerWithWriter logs each HTTP request as one JSON line on w.
// Fields: request_id (from RequestID), method, path, status, latency in ms, ts in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return LoggerWithZap(logger.NewJSON(w, loc))
}

// LoggerWithZap writes access log entries through log.
func LoggerWithZap(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		log.Info("http_request",
			zap.String("request_id", rid),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		)
		return err
	}
}
