package scans

import (
	"time"
)

// ID tipe untuk Scan (timestamp + filename composite, dibuat saat intake)
type FileID string

// Status enum
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Result value object: the fields the processor writes exactly once when a
// scan finishes. RisksDetected and ConfidenceScores are positionally aligned
// and always the same length.
type Result struct {
	RisksDetected    []string  `json:"risks_detected"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	AISummary        string    `json:"ai_summary"`
	Recommendations  string    `json:"recommendations"`
}

// Aggregate Root: Scan
type Scan struct {
	FileID           FileID    `json:"file_id"`
	StoragePath      string    `json:"storage_path"`
	Status           Status    `json:"status"`
	RisksDetected    []string  `json:"risks_detected"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	AISummary        string    `json:"ai_summary,omitempty"`
	Recommendations  string    `json:"recommendations,omitempty"`
	FailureReason    string    `json:"failure_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Terminal reports whether the scan reached an end state.
func (s *Scan) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}
