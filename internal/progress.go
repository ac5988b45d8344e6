package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// Status output goes to stderr so stdout stays pipeable; tests swap these
var (
	statusOut io.Writer = os.Stderr
	resultOut io.Writer = os.Stdout
)

// ProgressStep represents a single step in a multi-step process
type ProgressStep struct {
	Message string
	Fn      func(ctx context.Context) error
}

// ShowProgress runs fn behind a spinner when stderr is a terminal.
// fn receives ctx and should stop when it is cancelled.
func ShowProgress(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	if !isTerminal(statusOut) {
		LogDebug(message)
		return fn(ctx)
	}
	return showSpinner(ctx, message, fn)
}

// ShowProgressWithSteps runs steps in order, numbering them, and stops at the first failure
func ShowProgressWithSteps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := ShowProgress(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

func showSpinner(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				char := spinnerChars[i%len(spinnerChars)]
				fmt.Fprintf(statusOut, "\r%s %s", progressStyle.Render(char), message)
				i++
			}
		}
	}()

	go func() {
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	close(stop)
	<-spinnerDone

	if err != nil {
		fmt.Fprintf(statusOut, "\r%s %s\n", errorStyle.Render("✗"), message)
		return err
	}
	fmt.Fprintf(statusOut, "\r%s %s\n", successStyle.Render("✓"), message)
	return nil
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(resultOut) {
		fmt.Fprintf(resultOut, "%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Fprintln(resultOut, message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(statusOut) {
		fmt.Fprintf(statusOut, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintln(statusOut, message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(resultOut) {
		fmt.Fprintf(resultOut, "%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Fprintln(resultOut, message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(statusOut) {
		fmt.Fprintf(statusOut, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(statusOut, "WARNING: %s\n", message)
	}
}

// SetOutput redirects status and result messages, mostly useful in tests
func SetOutput(status, result io.Writer) {
	statusOut = status
	resultOut = result
}
