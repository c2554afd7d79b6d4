package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/studiobot/internal/http/handler/webhook"
)

// WebhookRouter also serves the root path, where existing hooks were configured.
func WebhookRouter(router *gin.Engine, h *webhook.GitHubWebhookHandler) {
	router.POST("/webhooks/github", h.HandleEvent)
	router.POST("/", h.HandleEvent)
}
