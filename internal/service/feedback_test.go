package service

import (
	"path/filepath"
	"testing"
)

type fakeRecorder struct {
	known map[string]bool
	calls int
}

func (f *fakeRecorder) RecordFeedback(docID string, rating int, comments string) (bool, error) {
	f.calls++
	return f.known[docID], nil
}

func TestRecordFeedbackAttachesToKnownDocument(t *testing.T) {
	rec := &fakeRecorder{known: map[string]bool{"doc-1": true}}
	s := NewFeedbackService(rec, filepath.Join(t.TempDir(), "feedback.json"))

	attached, err := s.Record("doc-1", 4, "useful report")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !attached {
		t.Fatal("expected feedback to attach to known document")
	}
	if rec.calls != 1 {
		t.Fatalf("history store called %d times", rec.calls)
	}
}

func TestRecordFeedbackUnknownDocumentStillLogged(t *testing.T) {
	rec := &fakeRecorder{known: map[string]bool{}}
	s := NewFeedbackService(rec, filepath.Join(t.TempDir(), "feedback.json"))

	attached, err := s.Record("ghost-doc", 2, "never saw this")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if attached {
		t.Fatal("unknown document must not report as attached")
	}

	entries, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(entries) != 1 || entries[0].DocID != "ghost-doc" || entries[0].Attached {
		t.Fatalf("unexpected log contents: %+v", entries)
	}
}

func TestRecordFeedbackValidatesRating(t *testing.T) {
	s := NewFeedbackService(&fakeRecorder{}, filepath.Join(t.TempDir(), "feedback.json"))

	for _, rating := range []int{0, 6, -1} {
		if _, err := s.Record("doc-1", rating, ""); err == nil {
			t.Fatalf("rating %d should be rejected", rating)
		}
	}
	if _, err := s.Record("", 3, ""); err == nil {
		t.Fatal("empty doc_id should be rejected")
	}
}

func TestExportPreservesOrder(t *testing.T) {
	rec := &fakeRecorder{known: map[string]bool{"a": true, "b": true}}
	s := NewFeedbackService(rec, filepath.Join(t.TempDir(), "feedback.json"))

	for i, doc := range []string{"a", "b", "a"} {
		if _, err := s.Record(doc, i%5+1, "round"); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].DocID != "a" || entries[1].DocID != "b" || entries[2].DocID != "a" {
		t.Fatalf("order lost: %+v", entries)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Fatal("timestamps should be non-decreasing")
		}
	}
}
