package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// FeedbackRecorder is the history-store surface the feedback flow needs.
type FeedbackRecorder interface {
	RecordFeedback(docID string, rating int, comments string) (bool, error)
}

// FeedbackEntry is one row of the standalone feedback log.
type FeedbackEntry struct {
	DocID     string    `json:"doc_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	Attached  bool      `json:"attached"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackService records user ratings twice: into the version history next
// to the document they rate, and into a flat log kept for export even when
// the document id is unknown.
type FeedbackService struct {
	mu      sync.Mutex
	history FeedbackRecorder
	path    string
}

func NewFeedbackService(history FeedbackRecorder, path string) *FeedbackService {
	return &FeedbackService{history: history, path: path}
}

// Record stores one rating. The returned flag reports whether the document
// was found in the history; an unknown id still lands in the log.
func (s *FeedbackService) Record(docID string, rating int, comments string) (bool, error) {
	if docID == "" {
		return false, fmt.Errorf("doc_id is required")
	}
	if rating < 1 || rating > 5 {
		return false, fmt.Errorf("rating must be between 1 and 5")
	}

	attached, err := s.history.RecordFeedback(docID, rating, comments)
	if err != nil {
		return false, err
	}
	if !attached {
		klog.V(6).Infof("feedback for unknown doc %s kept in log only", docID)
	}

	entry := FeedbackEntry{
		DocID:     docID,
		Rating:    rating,
		Comments:  comments,
		Attached:  attached,
		Timestamp: time.Now().UTC(),
	}
	if err := s.append(entry); err != nil {
		return attached, fmt.Errorf("append feedback log: %w", err)
	}
	return attached, nil
}

// Export returns every logged entry, oldest first.
func (s *FeedbackService) Export() ([]FeedbackEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FeedbackService) append(entry FeedbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *FeedbackService) read() ([]FeedbackEntry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []FeedbackEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("feedback log corrupted: %w", err)
	}
	return entries, nil
}
