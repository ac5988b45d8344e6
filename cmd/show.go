package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var showLimit int

var (
	applicationHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	applicationMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <application-id>",
	Short: "Show an application with its notes",
	Long:  `Display one application's details followed by its notes, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("application", args[0])
		if err != nil {
			return err
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			report, err := fetchReport(ctx, app.Tracker, id)
			if err != nil {
				return err
			}

			notes := report.Notes
			if showLimit > 0 && len(notes) > showLimit {
				notes = notes[:showLimit]
			}

			out := cmd.OutOrStdout()
			displayApplicationHeader(out, &report.Application)
			fmt.Fprintln(out, sectionStyle.Render(fmt.Sprintf("Notes (%d)", len(report.Notes))))
			fmt.Fprintln(out)
			if len(notes) == 0 {
				fmt.Fprintln(out, dateStyle.Render("   No notes yet. Add one with `jobtrack note add "+args[0]+" <text>`"))
				return nil
			}
			for i, note := range notes {
				displayNote(out, note, i+1, len(notes))
			}
			if len(notes) < len(report.Notes) {
				fmt.Fprintln(out, dateStyle.Render(fmt.Sprintf("   ... %d older note(s) hidden", len(report.Notes)-len(notes))))
			}
			return nil
		})
	},
}

// fetchReport loads an application and its notes concurrently
func fetchReport(ctx context.Context, tracker *internal.Tracker, id int64) (*internal.ApplicationReport, error) {
	var (
		application *internal.Application
		notes       []internal.Note
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := tracker.Application(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load application %d: %w", id, err)
		}
		application = a
		return nil
	})
	g.Go(func() error {
		n, err := tracker.Notes(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load notes of application %d: %w", id, err)
		}
		notes = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &internal.ApplicationReport{Application: *application, Notes: notes}, nil
}

func displayApplicationHeader(out io.Writer, a *internal.Application) {
	fmt.Fprintln(out, applicationHeaderStyle.Render(fmt.Sprintf("💼 %s at %s", a.PositionTitle, a.CompanyName)))

	rows := [][2]string{
		{"ID:", fmt.Sprintf("%d", a.ID)},
		{"Status:", renderStatus(a.Status)},
		{"Applied:", a.ApplicationDate},
	}
	if a.NextStepDate != "" {
		rows = append(rows, [2]string{"Next step:", a.NextStepDate})
	}
	if a.Location != "" {
		rows = append(rows, [2]string{"Location:", a.Location})
	}
	if a.WorkMode != "" {
		rows = append(rows, [2]string{"Work mode:", string(a.WorkMode)})
	}
	if salary := salaryRange(a.SalaryMin, a.SalaryMax); salary != "" {
		rows = append(rows, [2]string{"Salary:", salary})
	}
	if a.ApplicationSource != "" {
		rows = append(rows, [2]string{"Source:", a.ApplicationSource})
	}
	if a.JobPostingURL != "" {
		rows = append(rows, [2]string{"Posting:", a.JobPostingURL})
	}

	for _, row := range rows {
		fmt.Fprintf(out, "   %s %s\n", labelStyle.Render(row[0]), row[1])
	}

	var meta []string
	created, updated := a.GetCreatedAt(), a.GetUpdatedAt()
	if !created.IsZero() {
		meta = append(meta, "created "+created.Format("2006-01-02 15:04"))
	}
	if !updated.IsZero() && !updated.Equal(created) {
		meta = append(meta, "updated "+updated.Format("2006-01-02 15:04"))
	}
	if len(meta) > 0 {
		fmt.Fprintln(out, applicationMetaStyle.Render("   "+strings.Join(meta, " • ")))
	} else {
		fmt.Fprintln(out)
	}
}

func displayNote(out io.Writer, note internal.Note, index, total int) {
	header := noteHeaderStyle.Render(fmt.Sprintf("📝 Note %d", note.ID)) + " " + idStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if t := note.GetCreatedAt(); !t.IsZero() {
		header += " " + dateStyle.Render(t.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, header)
	fmt.Fprintln(out, noteContentStyle.Render(note.Content))
}

func salaryRange(lo, hi *int) string {
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

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Show at most this many notes (0 for all)")
}
