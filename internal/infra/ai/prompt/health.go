package prompt

import (
	"fmt"
	"strings"
)

// Summary builds the first generation prompt around the provisional analysis.
// The description and the joined risk labels are embedded verbatim.
func Summary(analysisText string, risks []string) string {
	return fmt.Sprintf(
		"As a medical AI assistant, analyze this health scan data: %s. Detected risks: %s. Provide a professional medical summary and recommendations. Keep it concise and professional.",
		analysisText,
		strings.Join(risks, ", "),
	)
}

// Recommendations builds the second generation prompt from the summary the
// first call produced.
func Recommendations(summary string) string {
	return fmt.Sprintf(
		"Based on the health scan analysis: %q, provide 3-5 specific, actionable healthcare recommendations. Format as bullet points.",
		summary,
	)
}

// ChatSystem is the system message for the diagnosis chat.
func ChatSystem() string {
	return "You are an AI medical assistant. Help users understand symptoms, provide general health information, and guide them on when to seek medical care. Always remind users that you do not replace professional medical advice. Keep answers concise."
}
