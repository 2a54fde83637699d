package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/kothakarthikeya/legal-contract/internal/service"
)

type FeedbackHandler struct {
	service *service.FeedbackService
}

func NewFeedbackHandler(service *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

type feedbackRequest struct {
	DocID    string `json:"doc_id" binding:"required"`
	Rating   int    `json:"rating" binding:"required"`
	Comments string `json:"comments"`
}

// Submit records a rating. Feedback for a document the history does not
// know is accepted but flagged, so clients can tell the two cases apart.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attached, err := h.service.Record(req.DocID, req.Rating, req.Comments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := "recorded"
	if !attached {
		status = "recorded_unmatched"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "doc_id": req.DocID})
}

// Export returns the full feedback log.
func (h *FeedbackHandler) Export(c *gin.Context) {
	entries, err := h.service.Export()
	if err != nil {
		klog.Errorf("export feedback: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []service.FeedbackEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
