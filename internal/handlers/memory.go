package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PepaPanda/uu-backend-project/internal/service"
)

// MemoryHandler serves item names the user has used before, for autocomplete.
type MemoryHandler struct {
	lists *service.ListService
}

func NewMemoryHandler(lists *service.ListService) *MemoryHandler {
	return &MemoryHandler{lists: lists}
}

// GetMemory returns item suggestions. Query parameters: q (case-insensitive
// substring filter) and limit (default 20, capped at 100).
func (h *MemoryHandler) GetMemory(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			badRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	suggestions, err := h.lists.ItemSuggestions(c.Request.Context(), actor, c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": suggestions, "count": len(suggestions)})
}
