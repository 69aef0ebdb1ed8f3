package scans

import "context"

// StaticAnalyzer is the placeholder classification step: a fixed profile per
// file kind, independent of the file's bytes. It stands where a real vision /
// document model would be called.
type StaticAnalyzer struct{}

func (StaticAnalyzer) Analyze(_ context.Context, kind FileKind, _ []byte) (Analysis, error) {
	switch kind {
	case KindPDF:
		return Analysis{
			Text:             "PDF medical report detected. Advanced text extraction and analysis would be performed here.",
			RisksDetected:    []string{"Document Analysis Pending"},
			ConfidenceScores: []float64{0.85},
		}, nil
	case KindImage:
		return Analysis{
			Text:             "Medical image detected. Advanced imaging analysis would be performed here using TorchXRayVision and MONAI.",
			RisksDetected:    []string{"Potential Anomaly Detected", "Further Review Recommended"},
			ConfidenceScores: []float64{0.78, 0.82},
		}, nil
	default:
		// unknown kinds fall through with no analysis at all
		return Analysis{
			RisksDetected:    []string{},
			ConfidenceScores: []float64{},
		}, nil
	}
}
