package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/studiobot/internal/http/handler"
	"basegraph.app/studiobot/internal/http/handler/webhook"
	"basegraph.app/studiobot/internal/mapper"
	"basegraph.app/studiobot/internal/service"
	"basegraph.app/studiobot/internal/store"
)

type RouterConfig struct {
	WebhookSecret string
	// Outcomes enables the outcome history routes when set.
	Outcomes store.OutcomeStore
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	webhookHandler := webhook.NewGitHubWebhookHandler(cfg.WebhookSecret, mapper.NewGitHubEventMapper(), services.Dispatch())
	WebhookRouter(router, webhookHandler)

	if cfg.Outcomes != nil {
		OutcomeRouter(router.Group("/issues"), handler.NewOutcomeHandler(cfg.Outcomes))
	}
}
