package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
)

var noteDeleteYes bool

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage the notes of an application",
}

var noteListCmd = &cobra.Command{
	Use:     "list <application-id>",
	Aliases: []string{"ls"},
	Short:   "List notes, newest first",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, err := parseID("application", args[0])
		if err != nil {
			return err
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			notes, err := app.Tracker.Notes(ctx, appID)
			if err != nil {
				return fmt.Errorf("failed to list notes: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📝 Application %d has no notes", appID)))
				return nil
			}
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📝 %d note(s) for application %d", len(notes), appID)))
			fmt.Fprintln(out)
			for i, note := range notes {
				displayNote(out, note, i+1, len(notes))
			}
			return nil
		})
	},
}

var noteAddCmd = &cobra.Command{
	Use:   "add <application-id> <text...>",
	Short: "Add a note to an application",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, err := parseID("application", args[0])
		if err != nil {
			return err
		}
		content := strings.Join(args[1:], " ")

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			note, err := app.Tracker.CreateNote(ctx, appID, content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Added note %d to application %d", note.ID, appID)))
			return nil
		})
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <application-id> <note-id>",
	Short: "Show one note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, noteID, err := parseNoteArgs(args)
		if err != nil {
			return err
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			note, err := app.Tracker.Note(ctx, appID, noteID)
			if err != nil {
				return err
			}
			displayNote(cmd.OutOrStdout(), *note, 1, 1)
			return nil
		})
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <application-id> <note-id> <text...>",
	Short: "Replace the text of a note",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, noteID, err := parseNoteArgs(args)
		if err != nil {
			return err
		}
		content := strings.Join(args[2:], " ")

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			if _, err := app.Tracker.UpdateNote(ctx, appID, noteID, content); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Updated note %d", noteID)))
			return nil
		})
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:     "delete <application-id> <note-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, noteID, err := parseNoteArgs(args)
		if err != nil {
			return err
		}

		if !noteDeleteYes {
			ok, err := confirm(cmd, fmt.Sprintf("Delete note %d?", noteID))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("Aborted"))
				return nil
			}
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			if err := app.Tracker.DeleteNote(ctx, appID, noteID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Deleted note %d", noteID)))
			return nil
		})
	},
}

func parseNoteArgs(args []string) (int64, int64, error) {
	appID, err := parseID("application", args[0])
	if err != nil {
		return 0, 0, err
	}
	noteID, err := parseID("note", args[1])
	if err != nil {
		return 0, 0, err
	}
	return appID, noteID, nil
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteListCmd, noteAddCmd, noteShowCmd, noteEditCmd, noteDeleteCmd)
	noteDeleteCmd.Flags().BoolVarP(&noteDeleteYes, "yes", "y", false, "Do not ask for confirmation")
}
