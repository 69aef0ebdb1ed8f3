package scans

import (
	"path/filepath"
	"strings"
)

// FileKind enum
type FileKind string

const (
	KindPDF     FileKind = "pdf"
	KindImage   FileKind = "image"
	KindUnknown FileKind = "unknown"
)

// Classify maps a storage path to a file kind by extension, case-insensitive.
// Anything outside the known set is KindUnknown; callers decide what that
// means (the processor lets it fall through with an empty analysis).
func Classify(path string) FileKind {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "pdf":
		return KindPDF
	case "jpg", "jpeg", "png":
		return KindImage
	default:
		return KindUnknown
	}
}
