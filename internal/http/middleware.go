package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

// localOnly rejects requests that do not come from this machine or that name a non-local
// Host, which closes DNS rebinding against the signing endpoints.
func localOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isLoopbackRequest(c.Request) {
			log.Warn("http: rejected non-loopback request", "remote", c.Request.RemoteAddr, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{JSONKeyError: HTTPErrorForbiddenText})
			return
		}
		if !isSafeLocalHost(c.Request.Host) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{JSONKeyError: HTTPErrorForbiddenHost})
			return
		}
		c.Next()
	}
}

// requestLog emits one line per request through the structured logger.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		status := c.Writer.Status()
		errs := c.Errors.String()
		if status >= http.StatusInternalServerError {
			log.Error("http request", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", errs)
			return
		}
		log.Info("http request", "method", c.Request.Method, "path", c.FullPath(), "status", status)
	}
}
