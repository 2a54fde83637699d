package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kothakarthikeya/legal-contract/internal/history"
)

type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// Get returns the full version registry.
func (h *HistoryHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}
