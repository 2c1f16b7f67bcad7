package api

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallerHeader carries the calling account. Authenticating it is the job
// of whatever sits in front of this server.
const CallerHeader = "X-Account-Id"

const callerKey = "caller"

// LocalOnly rejects requests whose connection does not come from a
// loopback address. Forwarding headers are ignored.
func LocalOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := net.ParseIP(c.RemoteIP())
		if ip == nil || !ip.IsLoopback() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "local access only"})
			return
		}
		c.Next()
	}
}

// RequireCaller rejects requests without a caller account.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetHeader(CallerHeader)
		if caller == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + CallerHeader + " header"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if caller := c.GetString(callerKey); caller != "" {
			fields = append(fields, zap.String("caller", caller))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
