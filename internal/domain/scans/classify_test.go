package scans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want FileKind
	}{
		{"health_scans/1700000000000_report.pdf", KindPDF},
		{"health_scans/1700000000000_chest.jpg", KindImage},
		{"health_scans/1700000000000_chest.jpeg", KindImage},
		{"health_scans/1700000000000_xray.png", KindImage},
		{"health_scans/1700000000000_REPORT.PDF", KindPDF},
		{"health_scans/1700000000000_Xray.PNG", KindImage},
		{"health_scans/1700000000000_notes.txt", KindUnknown},
		{"health_scans/1700000000000_noext", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}
