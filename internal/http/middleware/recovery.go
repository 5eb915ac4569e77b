package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/ctxutil"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

// Recovery turns a handler panic into the FAILED payload publishers expect.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if log != nil {
				fields := append([]interface{}{"panic", fmt.Sprint(r), "path", c.Request.URL.Path}, ctxutil.LogFields(c.Request.Context())...)
				log.Error("HTTP handler panic", fields...)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "FAILED", "message": "internal error"})
		}()
		c.Next()
	}
}
