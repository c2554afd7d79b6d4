package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"basegraph.app/studiobot/internal/store"
)

type OutcomeHandler struct {
	outcomes store.OutcomeStore
}

func NewOutcomeHandler(outcomes store.OutcomeStore) *OutcomeHandler {
	return &OutcomeHandler{outcomes: outcomes}
}

// ListByIssue returns the latest action outcomes recorded for an issue.
func (h *OutcomeHandler) ListByIssue(c *gin.Context) {
	ctx := c.Request.Context()

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issue number"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	records, err := h.outcomes.ListByIssue(ctx, number, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list outcomes", "error", err, "issue_number", number)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list outcomes"})
		return
	}
	if records == nil {
		records = []store.OutcomeRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"issue_number": number, "outcomes": records})
}
