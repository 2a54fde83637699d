package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/kothakarthikeya/legal-contract/internal/history"
	"github.com/kothakarthikeya/legal-contract/internal/ingest"
	"github.com/kothakarthikeya/legal-contract/internal/workflow"
)

// ErrEmptyUpload rejects zero-byte uploads before the pipeline starts.
var ErrEmptyUpload = fmt.Errorf("uploaded file is empty")

// PipelineRunner runs the analysis graph for one stored upload.
type PipelineRunner interface {
	Run(ctx context.Context, filePath, docID string) (*workflow.State, error)
}

// AnalysisResult is what one accepted upload produces.
type AnalysisResult struct {
	DocID        string                `json:"doc_id"`
	ReportHTML   string                `json:"report_html"`
	Relationship *history.Relationship `json:"relationship,omitempty"`
}

// AnalysisService owns the upload lifecycle: validate, store, run the
// pipeline, persist the report.
type AnalysisService struct {
	pipeline  PipelineRunner
	uploadDir string
	reportDir string
}

func NewAnalysisService(pipeline PipelineRunner, uploadDir, reportDir string) *AnalysisService {
	return &AnalysisService{
		pipeline:  pipeline,
		uploadDir: uploadDir,
		reportDir: reportDir,
	}
}

// AnalyzeUpload validates and stores the uploaded file, then runs the full
// analysis. Input errors are reported before the graph ever starts.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, filename string, src io.Reader) (*AnalysisResult, error) {
	filename = filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if !ingest.SupportedExtensions[ext] {
		return nil, &ingest.ErrUnsupportedType{Ext: ext}
	}

	docID := uuid.NewString()
	path := filepath.Join(s.uploadDir, docID+"_"+filename)
	size, err := saveUpload(path, src)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if size == 0 {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyUpload)
	}
	klog.V(6).Infof("stored upload %s (%d bytes) as doc %s", filename, size, docID)

	state, err := s.pipeline.Run(ctx, path, docID)
	if err != nil {
		return nil, err
	}

	// the report in the response is authoritative; the saved copy only
	// backs the download endpoint
	if err := s.saveReport(docID, state.FinalReport); err != nil {
		klog.Errorf("persist report for doc %s: %v", docID, err)
	}

	return &AnalysisResult{
		DocID:        docID,
		ReportHTML:   state.FinalReport,
		Relationship: state.Relationship,
	}, nil
}

// GetReport returns a previously persisted report.
func (s *AnalysisService) GetReport(docID string) (string, error) {
	if strings.ContainsAny(docID, "/\\") {
		return "", fmt.Errorf("invalid document id")
	}
	data, err := os.ReadFile(s.reportPath(docID))
	if err != nil {
		return "", fmt.Errorf("report for %s not found", docID)
	}
	return string(data), nil
}

func (s *AnalysisService) saveReport(docID, html string) error {
	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.reportPath(docID), []byte(html), 0o644)
}

func (s *AnalysisService) reportPath(docID string) string {
	return filepath.Join(s.reportDir, docID+".html")
}

func saveUpload(path string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	return io.Copy(dst, src)
}
