package scans

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	domai "github.com/bryanwahyu/healthscan-ai/internal/domain/ai"
	domain "github.com/bryanwahyu/healthscan-ai/internal/domain/scans"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/ai/prompt"
)

// Fallback texts stored when a generation call returns nothing usable.
// Provider errors never reach the persisted result.
const (
	fallbackSummary         = "Analysis completed. Please consult with a healthcare professional for detailed interpretation."
	fallbackRecommendations = "Consult with a healthcare professional for personalized recommendations."
)

// storagePrefix is the object-store key prefix for uploaded scans.
const storagePrefix = "health_scans/"

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// Service implements use-cases untuk health scans.
// Safe for concurrent use: each scan is keyed by its own FileID and the final
// row update is a single-row write.
type Service struct {
	Repo      domain.Repository
	Objects   domain.ObjectStore
	Analyzer  domain.Analyzer
	Generator domai.TextGenerator
	Events    domain.Publisher // optional
	Clock     Clock
}

// IntakeResult is what the upload endpoint returns to the browser.
type IntakeResult struct {
	FileID      domain.FileID `json:"file_id"`
	StoragePath string        `json:"storage_path"`
	Status      domain.Status `json:"status"`
}

// Intake uploads the raw bytes and creates the pending row. Either failure
// aborts the whole operation; a blob orphaned by a failed insert is accepted
// and left to the bucket's retention.
func (s *Service) Intake(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (IntakeResult, error) {
	now := s.Clock.Now()
	id := NewFileID(now, filename)
	key := storagePrefix + string(id)

	if err := s.Objects.Upload(ctx, key, r, size, contentType); err != nil {
		return IntakeResult{}, fmt.Errorf("uploading scan: %w", err)
	}

	scan := &domain.Scan{
		FileID:           id,
		StoragePath:      key,
		Status:           domain.StatusProcessing,
		RisksDetected:    []string{},
		ConfidenceScores: []float64{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Insert(ctx, scan); err != nil {
		return IntakeResult{}, fmt.Errorf("inserting scan row: %w", err)
	}

	return IntakeResult{FileID: id, StoragePath: key, Status: domain.StatusProcessing}, nil
}

// ProcessUntilDone → jalanin processor dengan context.Background()
// cocok dipanggil dari goroutine di router supaya gak kena context canceled
func (s *Service) ProcessUntilDone(id domain.FileID) error {
	return s.Process(context.Background(), id)
}

// Process transforms a stored file into a persisted analysis:
// download → classify → analyze → summary call → recommendations call →
// single completing update. Every exit path writes a terminal status so the
// listener never hangs on a row stuck in processing.
func (s *Service) Process(ctx context.Context, id domain.FileID) error {
	scan, err := s.Repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading scan %s: %w", id, err)
	}

	data, err := s.Objects.Download(ctx, scan.StoragePath)
	if err != nil {
		return s.fail(ctx, scan, fmt.Errorf("downloading %s: %w", scan.StoragePath, err))
	}

	kind := domain.Classify(scan.StoragePath)
	analysis, err := s.Analyzer.Analyze(ctx, kind, data)
	if err != nil {
		return s.fail(ctx, scan, fmt.Errorf("analyzing %s: %w", id, err))
	}

	summary := s.generate(ctx, prompt.Summary(analysis.Text, analysis.RisksDetected), fallbackSummary)
	recommendations := s.generate(ctx, prompt.Recommendations(summary), fallbackRecommendations)

	res := domain.Result{
		RisksDetected:    analysis.RisksDetected,
		ConfidenceScores: analysis.ConfidenceScores,
		AISummary:        summary,
		Recommendations:  recommendations,
	}
	now := s.Clock.Now()
	if err := s.Repo.Complete(ctx, id, res, now); err != nil {
		return s.fail(ctx, scan, fmt.Errorf("storing result for %s: %w", id, err))
	}

	done := *scan
	done.Status = domain.StatusCompleted
	done.RisksDetected = res.RisksDetected
	done.ConfidenceScores = res.ConfidenceScores
	done.AISummary = res.AISummary
	done.Recommendations = res.Recommendations
	done.FailureReason = ""
	done.UpdatedAt = now
	s.publish(&done)
	return nil
}

// generate runs one generation call and degrades to the fallback instead of
// failing the pipeline.
func (s *Service) generate(ctx context.Context, p, fallback string) string {
	text, err := s.Generator.Generate(ctx, p)
	if err != nil {
		log.Printf("generation call failed, using fallback: %v", err)
		return fallback
	}
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}

func (s *Service) fail(ctx context.Context, scan *domain.Scan, cause error) error {
	now := s.Clock.Now()
	if err := s.Repo.MarkFailed(ctx, scan.FileID, cause.Error(), now); err != nil {
		log.Printf("mark failed error for %s: %v", scan.FileID, err)
		return cause
	}
	failed := *scan
	failed.Status = domain.StatusFailed
	failed.FailureReason = cause.Error()
	failed.UpdatedAt = now
	s.publish(&failed)
	return cause
}

func (s *Service) publish(scan *domain.Scan) {
	if s.Events != nil {
		s.Events.Publish(scan)
	}
}

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, id domain.FileID) (*domain.Scan, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N scan terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Scan, error) {
	return s.Repo.Latest(ctx, limit)
}

// NewFileID builds the timestamp+filename composite key. Two uploads of the
// same filename within one millisecond collide; accepted, a collision only
// misattributes a result row.
func NewFileID(now time.Time, filename string) domain.FileID {
	return domain.FileID(fmt.Sprintf("%d_%s", now.UnixMilli(), SanitizeFilename(filename)))
}

// SanitizeFilename strips any path component and characters that have no
// business in an object key.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "upload"
	}
	return out
}
