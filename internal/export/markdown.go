package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/jobtrack/internal"
)

// MarkdownExporter exports reports as a readable Markdown page
type MarkdownExporter struct{}

// Export writes the application details followed by its notes
func (e *MarkdownExporter) Export(report *internal.ApplicationReport, w io.Writer) error {
	app := report.Application

	_, _ = fmt.Fprintf(w, "# %s: %s\n\n", escapeMarkdown(app.CompanyName), escapeMarkdown(app.PositionTitle))

	_, _ = fmt.Fprintf(w, "**Status:** %s  \n", app.Status)
	_, _ = fmt.Fprintf(w, "**Applied:** %s  \n", app.ApplicationDate)
	if app.NextStepDate != "" {
		_, _ = fmt.Fprintf(w, "**Next step:** %s  \n", app.NextStepDate)
	}
	if app.Location != "" {
		_, _ = fmt.Fprintf(w, "**Location:** %s  \n", escapeMarkdown(app.Location))
	}
	if app.WorkMode != "" {
		_, _ = fmt.Fprintf(w, "**Work mode:** %s  \n", app.WorkMode)
	}
	if salary := formatSalary(app.SalaryMin, app.SalaryMax); salary != "" {
		_, _ = fmt.Fprintf(w, "**Salary:** %s  \n", salary)
	}
	if app.ApplicationSource != "" {
		_, _ = fmt.Fprintf(w, "**Source:** %s  \n", escapeMarkdown(app.ApplicationSource))
	}
	if app.JobPostingURL != "" {
		_, _ = fmt.Fprintf(w, "**Posting:** <%s>  \n", app.JobPostingURL)
	}
	_, _ = fmt.Fprintf(w, "**Notes:** %d\n\n", len(report.Notes))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Notes\n\n")

	if len(report.Notes) == 0 {
		_, _ = fmt.Fprintf(w, "_No notes yet._\n")
		return nil
	}

	for i, note := range report.Notes {
		timestamp := ""
		if note.CreatedAt != "" {
			timestamp = fmt.Sprintf(" (%s)", note.CreatedAt)
		}

		_, _ = fmt.Fprintf(w, "**Note %d:**%s\n\n%s\n\n", note.ID, timestamp, escapeMarkdown(note.Content))

		if i < len(report.Notes)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func formatSalary(lo, hi *int) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%d - %d", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("from %d", *lo)
	case hi != nil:
		return fmt.Sprintf("up to %d", *hi)
	default:
		return ""
	}
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
