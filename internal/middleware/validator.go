package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation for the upload boundary. The processor itself stays
// lenient (unknown kinds fall through with an empty analysis); rejecting bad
// input is this layer's job, the server-side equivalent of the UI file picker.

// AllowedExtensions for uploaded scans
var AllowedExtensions = map[string]bool{
	"pdf":  true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

// ValidateUploadExtension checks the filename against the allow-list,
// case-insensitive.
func ValidateUploadExtension(filename string) error {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return fmt.Errorf("file has no extension (allowed: pdf, jpg, jpeg, png)")
	}
	ext := strings.ToLower(filename[idx+1:])
	if !AllowedExtensions[ext] {
		return fmt.Errorf("unsupported file type .%s (allowed: pdf, jpg, jpeg, png)", ext)
	}
	return nil
}

var fileIDPattern = regexp.MustCompile(`^\d{10,16}_[A-Za-z0-9._-]{1,200}$`)

// ValidateFileID validates the timestamp+filename composite key format.
func ValidateFileID(id string) error {
	if id == "" {
		return fmt.Errorf("file ID cannot be empty")
	}
	if !fileIDPattern.MatchString(id) {
		return fmt.Errorf("invalid file ID format")
	}
	return nil
}

// ValidateLimit validates the list limit parameter
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
