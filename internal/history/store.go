package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kothakarthikeya/legal-contract/internal/ingest"
	"k8s.io/klog/v2"
)

// Statuses returned by RegisterUpload.
const (
	StatusNewVersion = "new_version"
	StatusDuplicate  = "duplicate"
)

// Relationship kinds returned by DetectRelationship.
const (
	RelationshipNew       = "new_document"
	RelationshipExtension = "extension"
)

// VersionEntry is one upload of a logical document. Version numbers are
// 1-based and monotonic per logical name; identity is the content hash, not
// the filename or size.
type VersionEntry struct {
	DocID        string    `json:"doc_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Hash         string    `json:"hash"`
	Version      int       `json:"version"`
	Timestamp    time.Time `json:"timestamp"`
	Size         int64     `json:"size"`
	Feedback     *Feedback `json:"feedback,omitempty"`
}

type Feedback struct {
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	Timestamp time.Time `json:"timestamp"`
}

type RegisterResult struct {
	Status  string `json:"status"` // new_version, duplicate
	Version int    `json:"version"`
}

type Relationship struct {
	Relationship          string `json:"relationship"` // new_document, extension
	PreviousVersionsCount int    `json:"previous_versions_count,omitempty"`
	LastVersionID         string `json:"last_version_id,omitempty"`
}

// Registry is the persisted layout: one JSON document holding every logical
// name's version list.
type Registry struct {
	Documents   map[string]*DocumentHistory `json:"documents"`
	LastUpdated *time.Time                  `json:"last_updated"`
}

type DocumentHistory struct {
	Versions []VersionEntry `json:"versions"`
}

// Store tracks upload history and version lineage in a single on-disk JSON
// registry, read fully at construction and rewritten fully on each mutation.
// The mutex serializes the read-modify-write cycles; the file itself is not
// safe for multiple writer processes.
type Store struct {
	mu       sync.Mutex
	path     string
	registry *Registry
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.registry = &Registry{Documents: map[string]*DocumentHistory{}}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read registry: %w", err)
	}
	if err := json.Unmarshal(data, s.registry); err != nil {
		return fmt.Errorf("failed to parse registry %s: %w", s.path, err)
	}
	if s.registry.Documents == nil {
		s.registry.Documents = map[string]*DocumentHistory{}
	}
	return nil
}

// save rewrites the whole registry. Callers hold s.mu.
func (s *Store) save() error {
	now := time.Now()
	s.registry.LastUpdated = &now

	data, err := json.MarshalIndent(s.registry, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create registry directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// RegisterUpload hashes the file content and resolves it against the
// logical name's version list: an unseen hash appends version count+1, a
// known hash resolves to the existing version without appending.
func (s *Store) RegisterUpload(path, docID string) (*RegisterResult, error) {
	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}

	filename := filepath.Base(path)
	logicalName := ingest.LogicalName(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.registry.Documents[logicalName]
	if !ok {
		doc = &DocumentHistory{}
		s.registry.Documents[logicalName] = doc
	}

	for _, v := range doc.Versions {
		if v.Hash == hash {
			klog.V(6).Infof("duplicate upload resolved: name=%s, version=%d", logicalName, v.Version)
			return &RegisterResult{Status: StatusDuplicate, Version: v.Version}, nil
		}
	}

	version := len(doc.Versions) + 1
	doc.Versions = append(doc.Versions, VersionEntry{
		DocID:        docID,
		Filename:     filename,
		OriginalName: logicalName,
		Hash:         hash,
		Version:      version,
		Timestamp:    time.Now(),
		Size:         info.Size(),
	})

	if err := s.save(); err != nil {
		return nil, err
	}
	klog.V(6).Infof("new version registered: name=%s, version=%d, docID=%s", logicalName, version, docID)
	return &RegisterResult{Status: StatusNewVersion, Version: version}, nil
}

// GetVersions returns the logical name's versions in insertion order, which
// is chronological and equals version order.
func (s *Store) GetVersions(logicalName string) []VersionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.registry.Documents[logicalName]
	if !ok {
		return nil
	}
	versions := make([]VersionEntry, len(doc.Versions))
	copy(versions, doc.Versions)
	return versions
}

// RecordFeedback attaches feedback to the version whose DocID matches,
// searching across all logical names. Returns false when no version matches;
// that is a no-op, not an error.
func (s *Store) RecordFeedback(docID string, rating int, comments string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.registry.Documents {
		for i := range doc.Versions {
			if doc.Versions[i].DocID != docID {
				continue
			}
			doc.Versions[i].Feedback = &Feedback{
				Rating:    rating,
				Comments:  comments,
				Timestamp: time.Now(),
			}
			if err := s.save(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// DetectRelationship reports whether the upload extends a known logical
// document. Pure lookup, no mutation.
func (s *Store) DetectRelationship(path string) *Relationship {
	logicalName := ingest.LogicalName(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.registry.Documents[logicalName]
	if !ok || len(doc.Versions) == 0 {
		return &Relationship{Relationship: RelationshipNew}
	}
	last := doc.Versions[len(doc.Versions)-1]
	return &Relationship{
		Relationship:          RelationshipExtension,
		PreviousVersionsCount: len(doc.Versions),
		LastVersionID:         last.DocID,
	}
}

// Snapshot returns a deep copy of the registry for read-only consumers.
func (s *Store) Snapshot() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Registry{Documents: make(map[string]*DocumentHistory, len(s.registry.Documents))}
	if s.registry.LastUpdated != nil {
		ts := *s.registry.LastUpdated
		out.LastUpdated = &ts
	}
	for name, doc := range s.registry.Documents {
		versions := make([]VersionEntry, len(doc.Versions))
		copy(versions, doc.Versions)
		out.Documents[name] = &DocumentHistory{Versions: versions}
	}
	return out
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash upload: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
