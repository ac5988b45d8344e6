package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iksnae/jobtrack/internal"
	"github.com/spf13/cobra"
)

// parseID parses a positive numeric id argument
func parseID(what, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q: must be a positive number", what, arg)
	}
	return id, nil
}

// readLine reads one trimmed line from the command's input
func readLine(cmd *cobra.Command, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
	}
	// read byte by byte so consecutive prompts do not lose buffered input
	var line strings.Builder
	buf := make([]byte, 1)
	in := cmd.InOrStdin()
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(line.String()), nil
}

// confirm asks a yes/no question, defaulting to no
func confirm(cmd *cobra.Command, question string) (bool, error) {
	answer, err := readLine(cmd, question+" [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// formatDate renders a backend timestamp relative to now, in the list style
func formatDate(ts string, now time.Time) string {
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(internal.DateLayout, ts)
	if err != nil {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	diff := now.Sub(t)
	switch {
	case diff < 7*24*time.Hour:
		return t.Format("Mon Jan 02")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02")
	default:
		return t.Format("2006-01-02")
	}
}

// truncate shortens s to n runes, marking the cut
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
