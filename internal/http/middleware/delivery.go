package middleware

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/studiobot/common/logger"
	"basegraph.app/studiobot/internal/mapper"
)

// Delivery tags the request context with the webhook delivery ID.
func Delivery() gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logger.LogFields{Component: "studiobot.http"}
		if id := c.GetHeader(mapper.HeaderDelivery); id != "" {
			fields.DeliveryID = logger.Ptr(id)
		}
		ctx := logger.WithLogFields(c.Request.Context(), fields)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
