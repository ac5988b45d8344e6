package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/jobtrack/internal"
)

// JSONLExporter exports reports as JSON lines: the application first, then one line per note
type JSONLExporter struct{}

type jsonlRecord struct {
	Type        string                `json:"type"`
	Application *internal.Application `json:"application,omitempty"`
	Note        *internal.Note        `json:"note,omitempty"`
}

// Export writes one record per line
func (e *JSONLExporter) Export(report *internal.ApplicationReport, w io.Writer) error {
	enc := json.NewEncoder(w)

	if err := enc.Encode(jsonlRecord{Type: "application", Application: &report.Application}); err != nil {
		return fmt.Errorf("failed to encode application: %w", err)
	}

	for i := range report.Notes {
		if err := enc.Encode(jsonlRecord{Type: "note", Note: &report.Notes[i]}); err != nil {
			return fmt.Errorf("failed to encode note %d: %w", report.Notes[i].ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
