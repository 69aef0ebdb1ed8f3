package scans

import (
	"context"
	"io"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Insert(ctx context.Context, s *Scan) error
	Get(ctx context.Context, id FileID) (*Scan, error)
	Latest(ctx context.Context, limit int) ([]*Scan, error)
	Complete(ctx context.Context, id FileID, res Result, at time.Time) error
	MarkFailed(ctx context.Context, id FileID, reason string, at time.Time) error
}

// ObjectStore port (interface untuk penyimpanan blob)
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// Publisher delivers row changes to listening clients. Publish must not
// block; a slow subscriber is the publisher's problem, not the processor's.
type Publisher interface {
	Publish(s *Scan)
}

// Analysis is the provisional result an Analyzer produces before the
// generation calls run. Invariant: len(RisksDetected) == len(ConfidenceScores).
type Analysis struct {
	Text             string
	RisksDetected    []string
	ConfidenceScores []float64
}

// Analyzer port: turns stored file bytes into a provisional analysis. The
// default implementation is a fixed lookup per file kind; a real inference
// backend slots in here without touching the orchestration.
type Analyzer interface {
	Analyze(ctx context.Context, kind FileKind, data []byte) (Analysis, error)
}
