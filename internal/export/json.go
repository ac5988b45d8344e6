package export

import (
	"io"

	"github.com/iksnae/jobtrack/internal"
)

// JSONExporter exports reports as one pretty-printed JSON document
type JSONExporter struct{}

// Export writes the report as indented JSON
func (e *JSONExporter) Export(report *internal.ApplicationReport, w io.Writer) error {
	data, err := report.ToIntermediaryJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
