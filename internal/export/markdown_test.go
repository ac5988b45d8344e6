package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/jobtrack/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		report  *internal.ApplicationReport
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name:   "basic report",
			report: internal.CreateTestReport(1),
			want: []string{
				"# Company 1: Software Engineer",
				"**Status:** INTERVIEWING",
				"**Applied:** 2024-01-15",
				"**Next step:** 2024-02-01",
				"**Work mode:** HYBRID",
				"**Salary:** 90000 - 110000",
				"**Notes:** 2",
				"## Notes",
				"**Note 102:** (2024-01-20T14:00:00)",
				"Recruiter call went well",
			},
			wantErr: false,
		},
		{
			name: "minimal report",
			report: internal.CreateTestReportWithNotes(2, []internal.Note{
				{ID: 7, ApplicationID: 2, Content: "Sent **thank you** email"},
			}),
			want: []string{
				"**Note 7:**\n",
				"\\*\\*thank you\\*\\*",
			},
			notWant: []string{"**Location:**", "**Salary:**", "**Posting:**"},
			wantErr: false,
		},
		{
			name:    "report without notes",
			report:  internal.CreateTestReportWithNotes(3, nil),
			want:    []string{"**Notes:** 0", "_No notes yet._"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			err := exporter.Export(tt.report, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("MarkdownExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				for _, wantStr := range tt.want {
					if !strings.Contains(output, wantStr) {
						t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
					}
				}
				for _, notWantStr := range tt.notWant {
					if strings.Contains(output, notWantStr) {
						t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
					}
				}
			}
		})
	}
}

func TestFormatSalary(t *testing.T) {
	lo, hi := 50000, 70000
	tests := []struct {
		lo, hi *int
		want   string
	}{
		{lo: &lo, hi: &hi, want: "50000 - 70000"},
		{lo: &lo, want: "from 50000"},
		{hi: &hi, want: "up to 70000"},
		{want: ""},
	}
	for _, tt := range tests {
		if got := formatSalary(tt.lo, tt.hi); got != tt.want {
			t.Errorf("formatSalary() = %q, want %q", got, tt.want)
		}
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []string
		notWant  []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:    "This is **bold** text",
			want:     []string{"\\*\\*bold\\*\\*"},
			notWant:  []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:    "This is __underlined__ text",
			want:     []string{"\\_\\_underlined\\_\\_"},
			notWant:  []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:    "Regular text **bold** and ```code```",
			want:     []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant:  []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}


