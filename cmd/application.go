package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// applicationFlags holds the editable fields shared by create and update
type applicationFlags struct {
	company   string
	position  string
	status    string
	date      string
	nextStep  string
	location  string
	workMode  string
	source    string
	url       string
	salaryMin int
	salaryMax int

	clearSalary bool
}

func (f *applicationFlags) register(flags *pflag.FlagSet, defaults bool) {
	status, date := "", ""
	if defaults {
		status = string(internal.StatusApplied)
		date = time.Now().Format(internal.DateLayout)
	}
	flags.StringVar(&f.company, "company", "", "Company name")
	flags.StringVar(&f.position, "position", "", "Position title")
	flags.StringVarP(&f.status, "status", "s", status, "Status ("+joinStatuses()+")")
	flags.StringVar(&f.date, "date", date, "Application date (YYYY-MM-DD)")
	flags.StringVar(&f.nextStep, "next-step", "", "Next step date (YYYY-MM-DD)")
	flags.StringVar(&f.location, "location", "", "Location")
	flags.StringVar(&f.workMode, "work-mode", "", "Work mode (ONSITE, REMOTE, HYBRID)")
	flags.StringVar(&f.source, "source", "", "Where the position was found")
	flags.StringVar(&f.url, "url", "", "Job posting URL")
	flags.IntVar(&f.salaryMin, "salary-min", 0, "Lower bound of the salary range")
	flags.IntVar(&f.salaryMax, "salary-max", 0, "Upper bound of the salary range")
	if !defaults {
		flags.BoolVar(&f.clearSalary, "clear-salary", false, "Remove both salary bounds (combine with --salary-min/--salary-max to set new ones)")
	}
}

// apply copies every flag the user set onto req. With all set, every flag is
// applied, which is what create wants for its defaults.
func (f *applicationFlags) apply(flags *pflag.FlagSet, req *internal.ApplicationRequest, all bool) {
	set := func(name string) bool { return all || flags.Changed(name) }

	if set("company") {
		req.CompanyName = strings.TrimSpace(f.company)
	}
	if set("position") {
		req.PositionTitle = strings.TrimSpace(f.position)
	}
	if set("status") {
		// unknown values are passed through for validation to report
		if status, err := parseStatus(f.status); err == nil {
			req.Status = status
		} else {
			req.Status = internal.ApplicationStatus(f.status)
		}
	}
	if set("date") {
		req.ApplicationDate = f.date
	}
	if set("next-step") {
		req.NextStepDate = f.nextStep
	}
	if set("location") {
		req.Location = f.location
	}
	if set("work-mode") {
		req.WorkMode = internal.WorkMode(strings.ToUpper(f.workMode))
	}
	if set("source") {
		req.ApplicationSource = f.source
	}
	if set("url") {
		req.JobPostingURL = f.url
	}
	if flags.Changed("clear-salary") && f.clearSalary {
		req.SalaryMin = nil
		req.SalaryMax = nil
	}
	if flags.Changed("salary-min") {
		v := f.salaryMin
		req.SalaryMin = &v
	}
	if flags.Changed("salary-max") {
		v := f.salaryMax
		req.SalaryMax = &v
	}
}

var (
	createFlags applicationFlags
	updateFlags applicationFlags
	deleteYes   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Track a new application",
	Long: `Create a new job application. Company and position are required;
status defaults to APPLIED and the application date to today.`,
	Example: `  jobtrack create --company Acme --position "Backend Engineer"
  jobtrack create --company Initech --position SRE --work-mode REMOTE --salary-min 90000 --salary-max 120000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req internal.ApplicationRequest
		createFlags.apply(cmd.Flags(), &req, true)

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			created, err := app.Tracker.CreateApplication(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Created application %d: %s at %s", created.ID, created.PositionTitle, created.CompanyName)))
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <application-id>",
	Short: "Change an application",
	Long: `Update an application. Only the fields given as flags change; the
rest keep their current values. Text fields are cleared by passing an empty
value; the salary range is cleared with --clear-salary.`,
	Example: `  jobtrack update 3 --status INTERVIEWING --next-step 2024-02-01
  jobtrack update 3 --clear-salary --salary-min 80000`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("application", args[0])
		if err != nil {
			return err
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			current, err := app.Tracker.Application(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load application %d: %w", id, err)
			}

			req := current.Request()
			updateFlags.apply(cmd.Flags(), &req, false)

			updated, err := app.Tracker.UpdateApplication(ctx, id, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Updated application %d", updated.ID))+" "+renderStatus(updated.Status))
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <application-id>",
	Short: "Delete an application and its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("application", args[0])
		if err != nil {
			return err
		}

		if !deleteYes {
			ok, err := confirm(cmd, fmt.Sprintf("Delete application %d and all of its notes?", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("Aborted"))
				return nil
			}
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			if err := app.Tracker.DeleteApplication(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Deleted application %d", id)))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)

	createFlags.register(createCmd.Flags(), true)
	updateFlags.register(updateCmd.Flags(), false)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}
