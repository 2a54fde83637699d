package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/kothakarthikeya/legal-contract/internal/ingest"
	"github.com/kothakarthikeya/legal-contract/internal/service"
)

type AnalyzeHandler struct {
	service *service.AnalysisService
}

func NewAnalyzeHandler(service *service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{service: service}
}

// Analyze accepts a multipart contract upload, runs the full analysis and
// returns the HTML report. Input problems are rejected with 400 before any
// analysis work starts.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	res, err := h.service.AnalyzeUpload(c.Request.Context(), header.Filename, file)
	if err != nil {
		var unsupported *ingest.ErrUnsupportedType
		switch {
		case errors.As(err, &unsupported):
			c.JSON(http.StatusBadRequest, gin.H{"error": unsupported.Error()})
		case errors.Is(err, service.ErrEmptyUpload):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			klog.Errorf("analysis failed for %s: %v", header.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Header("X-Doc-ID", res.DocID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(res.ReportHTML))
}

// GetReport serves a previously generated report.
func (h *AnalyzeHandler) GetReport(c *gin.Context) {
	html, err := h.service.GetReport(c.Param("docId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
