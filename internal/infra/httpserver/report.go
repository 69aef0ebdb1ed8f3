package httpserver

import (
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/bryanwahyu/healthscan-ai/internal/domain/scans"
	"github.com/bryanwahyu/healthscan-ai/internal/middleware"
)

// Printable report, replaces the browser print view. Confidence scores render
// as whole percentages next to their positionally aligned risk.

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Health Scan Report {{.Scan.FileID}}</title>
<style>
body { font-family: Georgia, serif; max-width: 720px; margin: 2rem auto; color: #1a1a1a; }
h1 { border-bottom: 2px solid #1a1a1a; padding-bottom: .5rem; }
h2 { margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #999; padding: .4rem .8rem; text-align: left; }
.meta { color: #555; font-size: .9rem; }
pre { white-space: pre-wrap; font-family: inherit; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Health Scan Report</h1>
<p class="meta">File: {{.Scan.FileID}}<br>
Analyzed: {{.Scan.UpdatedAt.Format "2006-01-02 15:04 MST"}}</p>

<h2>Detected Risks</h2>
{{if .Risks}}
<table>
<tr><th>Risk</th><th>Confidence</th></tr>
{{range .Risks}}<tr><td>{{.Name}}</td><td>{{.Percent}}%</td></tr>
{{end}}</table>
{{else}}<p>No risks detected.</p>{{end}}

<h2>AI Summary</h2>
<pre>{{.Scan.AISummary}}</pre>

<h2>Recommendations</h2>
<pre>{{.Scan.Recommendations}}</pre>

<p class="meta">This report is generated automatically and is not a medical
diagnosis. Consult a healthcare professional.</p>
</body>
</html>
`))

type reportRisk struct {
	Name    string
	Percent int
}

type reportData struct {
	Scan  *domain.Scan
	Risks []reportRisk
}

// handleReport renders the completed scan as a printable HTML page. A scan
// that has not completed yet answers 409 so the client can retry after the
// event stream reports completion.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) error {
	id := domain.FileID(chi.URLParam(r, "fileID"))
	if err := middleware.ValidateFileID(string(id)); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	scan, err := s.Scans.Get(r.Context(), id)
	if err != nil {
		return err
	}
	if scan.Status != domain.StatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("scan is %s, report requires a completed scan", scan.Status))
		return nil
	}

	data := reportData{Scan: scan}
	for i, risk := range scan.RisksDetected {
		rr := reportRisk{Name: risk}
		if i < len(scan.ConfidenceScores) {
			rr.Percent = int(math.Round(scan.ConfidenceScores[i] * 100))
		}
		data.Risks = append(data.Risks, rr)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := reportTmpl.Execute(w, data); err != nil {
		log.Printf("rendering report for %s: %v", id, err)
	}
	return nil
}
