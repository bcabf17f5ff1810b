// Package logger builds the zap logger and its gin access-log middleware.
package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/survey-recon-api/pkg/config"
	"github.com/noah-isme/survey-recon-api/pkg/middleware/requestid"
)

// New builds a zap logger from the LOG_LEVEL / LOG_FORMAT settings. An
// unparseable level falls back to info rather than failing startup.
func New(cfg *config.Config) (*zap.Logger, error) {
	base := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		base = zap.NewProductionConfig()
	}

	if cfg.Log.Format == "console" {
		base.Encoding = "console"
	} else {
		base.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
		base.Level = level
	}

	base.EncoderConfig.TimeKey = "timestamp"
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return base.Build()
}

// GinMiddleware logs one structured line per request, tagged with the
// request id when the requestid middleware ran first.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		l.Info("http_request", fields...)
	}
}
