package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for file extensions outside the whitelist.
// It is an input error: callers report it before any analysis starts.
type ErrUnsupportedType struct {
	Ext string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}

// SupportedExtensions is the upload whitelist checked at the HTTP boundary.
var SupportedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".ppt": true, ".pptx": true,
	".jpg": true, ".jpeg": true, ".png": true,
	".txt": true, ".md": true,
}

// ReadText extracts plain text from a document, dispatching on extension.
// Plain-text formats are read directly; binary formats go through format
// readers that currently emit placeholders. Parsing fidelity is a concern
// of the pluggable readers, not of the analysis pipeline.
func ReadText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	case ".pdf":
		return readPlaceholder(path, "PDF")
	case ".doc", ".docx":
		return readPlaceholder(path, "DOCX")
	case ".ppt", ".pptx":
		return readPlaceholder(path, "PPTX")
	case ".jpg", ".jpeg", ".png":
		return readPlaceholder(path, "Image OCR")
	default:
		return "", &ErrUnsupportedType{Ext: ext}
	}
}

func readPlaceholder(path, format string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fmt.Sprintf("[Content from %s: %s]", format, filepath.Base(path)), nil
}

// LogicalName strips the upload-session UUID prefix from a stored filename,
// yielding the stable name that groups versions of the same document.
func LogicalName(path string) string {
	filename := filepath.Base(path)
	if idx := strings.Index(filename, "_"); idx >= 0 {
		return filename[idx+1:]
	}
	return filename
}
