package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"legalassist-backend/internal/shared/server/respond"
	"legalassist-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard 500 body. The request's
// identity and route go into the log line so the conversation can be found.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
			}
			if userID := UserIDFromContext(c); userID != "" {
				fields["user_id"] = userID
				fields["is_guest"] = IsGuest(c)
			}
			telemetry.Error("http.panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Something went wrong on our side. Please try again.", nil)
		}()
		c.Next()
	}
}
