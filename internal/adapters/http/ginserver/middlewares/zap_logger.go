package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger logs one line per request. 5xx responses log at error and 4xx at warn.
// Successful requests to the skip paths, such as /ping and /metrics scrapes, are not logged.
func ZapLogger(l *zap.Logger, skip ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		if _, ok := quiet[path]; ok && status < http.StatusBadRequest {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("uri", c.Request.RequestURI),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Int("size", max(c.Writer.Size(), 0)),
			zap.Duration("duration", time.Since(start)),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}
		l.Log(levelFor(status), "http_request", fields...)
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
