package export

import (
	"fmt"
	"io"

	"github.com/iksnae/jobtrack/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(report *internal.ApplicationReport, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// FileName is the name an exported report is written under
func FileName(report *internal.ApplicationReport, e Exporter) string {
	return fmt.Sprintf("application_%d.%s", report.Application.ID, e.Extension())
}
