package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/studiobot/internal/http/handler"
)

func OutcomeRouter(rg *gin.RouterGroup, h *handler.OutcomeHandler) {
	rg.GET("/:number/outcomes", h.ListByIssue)
}
