package templates

import (
	"fmt"
	"strings"
)

// StaleEventLine is one row of the stale report digest.
type StaleEventLine struct {
	EventID     string
	Description string
	ReportedAt  string
}

// RenderStaleEventDigest builds the subject, HTML and plain text bodies for
// the daily nudge an agency receives about open reports nobody has touched.
func RenderStaleEventDigest(agencyName string, lines []StaleEventLine) (subject, htmlContent, plainText string) {
	subject = fmt.Sprintf("%d open reports awaiting review", len(lines))

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", agencyName)
	fmt.Fprintf(&b, "The following reports have been open for more than 48 hours:\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "  - %s (%s), reported %s\n", l.Description, l.EventID, l.ReportedAt)
	}
	b.WriteString("\nPlease review them on your dashboard.")

	plainText = b.String()
	htmlContent = RenderGenericEmail(subject, plainText)
	return subject, htmlContent, plainText
}
