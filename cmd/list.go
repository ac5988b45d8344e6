package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listSearch string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked applications",
	Long: `List all job applications of the signed-in user.

Filter by pipeline stage with --status (APPLIED, INTERVIEWING, OFFER,
ACCEPTED, REJECTED, WITHDRAWN) or by company and position with --search.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var status internal.ApplicationStatus
		if listStatus != "" {
			var err error
			if status, err = parseStatus(listStatus); err != nil {
				return err
			}
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			apps, err := app.Tracker.Applications(ctx)
			if err != nil {
				return fmt.Errorf("failed to list applications: %w", err)
			}

			filtered := filterApplications(apps, status, listSearch)
			displayApplications(cmd.OutOrStdout(), filtered, time.Now())
			return nil
		})
	},
}

// parseStatus accepts any case
func parseStatus(s string) (internal.ApplicationStatus, error) {
	status := internal.ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range internal.ApplicationStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (expected one of %s)", s, joinStatuses())
}

func joinStatuses() string {
	names := make([]string, len(internal.ApplicationStatuses))
	for i, s := range internal.ApplicationStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func filterApplications(apps []internal.Application, status internal.ApplicationStatus, search string) []internal.Application {
	search = strings.ToLower(strings.TrimSpace(search))
	filtered := make([]internal.Application, 0, len(apps))
	for _, a := range apps {
		if status != "" && a.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.CompanyName), search) &&
			!strings.Contains(strings.ToLower(a.PositionTitle), search) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

func displayApplications(out io.Writer, apps []internal.Application, now time.Time) {
	if len(apps) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No applications found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d application(s)", len(apps))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Company")+"\t"+titleStyle.Render("Position")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Applied")+"\t"+titleStyle.Render("Next step")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	counts := make(map[internal.ApplicationStatus]int)
	for _, a := range apps {
		counts[a.Status]++
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(fmt.Sprintf("%d", a.ID)),
			truncate(a.CompanyName, 30),
			truncate(a.PositionTitle, 35),
			renderStatus(a.Status),
			dateStyle.Render(formatDate(a.ApplicationDate, now)),
			dateStyle.Render(formatDate(a.NextStepDate, now)),
		)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	var summary []string
	for _, s := range internal.ApplicationStatuses {
		if counts[s] > 0 {
			summary = append(summary, fmt.Sprintf("%s %d", renderStatus(s), counts[s]))
		}
	}
	fmt.Fprintln(out, strings.Join(summary, "  "))
	fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("💡 Tip: Use `jobtrack show %d` to see an application with its notes", apps[0].ID)))
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only show applications in this status")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only show applications whose company or position contains this text")
}
