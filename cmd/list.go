package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/careertrack/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	Long:  `List the saved conversations of a tool, oldest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		key, err := historyKey(historyTool)
		if err != nil {
			return err
		}
		sessions := a.store(key, nil).Sessions()

		out := cmd.OutOrStdout()
		printSessionTable(out, sessions, "")
		if len(sessions) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("Tip: reopen one with `careertrack %s --session %s`", historyTool, sessions[0].ID)))
		}
		return nil
	},
}

// printSessionTable writes one row per session. The row of current is marked.
func printSessionTable(out io.Writer, sessions []internal.ChatSession, current string) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No saved conversations"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	now := timeNow()
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		if r := []rune(title); len(r) > 50 {
			title = string(r[:47]) + "..."
		}

		id := idStyle.Render(s.ID)
		if s.ID == current {
			id = countStyle.Render("* " + s.ID)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			id,
			title,
			countStyle.Render(strconv.Itoa(len(s.Messages))),
			dateStyle.Render(relativeTime(s.Timestamp, now)))
	}
	_ = w.Flush()
}

// relativeTime formats t more coarsely the further it is from now.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	historyCmd.AddCommand(historyListCmd)
}
