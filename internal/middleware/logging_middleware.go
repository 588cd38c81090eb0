package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/mcworld/internal/logging"
)

// TraceHeader - заголовок ответа с trace-ID запроса.
const TraceHeader = "X-Trace-ID"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Служебные маршруты (/health, /metrics) пишутся на уровне DEBUG.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{logger: logging.GetAPILogger()}
}

// TraceID возвращает trace-ID, сохранённый в контексте запроса.
func TraceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если span уже создан otelgin
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Header(TraceHeader, traceID)

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		log := rl.logger.Info
		switch {
		case status >= 500:
			log = rl.logger.Error
		case strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/metrics"):
			log = rl.logger.Debug
		}
		log("[HTTP] %s %s %d %s ip=%s trace=%s", c.Request.Method, path, status, latency, c.ClientIP(), traceID)
	}
}
