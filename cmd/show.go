package cmd

import (
	"fmt"

	"github.com/iksnae/careertrack/internal"
	"github.com/spf13/cobra"
)

var showLimit int

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a saved conversation",
	Long: `Print the messages of a saved conversation.

Use --limit to show only the last N messages.`,
	Args: cobra.ExactArgs(1),
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
		session, ok := a.store(key, nil).GetChat(args[0])
		if !ok {
			return fmt.Errorf("%s session %s: %w", historyTool, args[0], internal.ErrSessionNotFound)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(session.Title))
		fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("%s · %d message(s) · %s",
			session.ID, len(session.Messages), relativeTime(session.Timestamp, timeNow()))))
		fmt.Fprintln(out)

		msgs := session.Messages
		if showLimit > 0 && len(msgs) > showLimit {
			msgs = msgs[len(msgs)-showLimit:]
		}
		newTranscript(out).writeAll(msgs)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	historyShowCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Show only the last N messages")
}
