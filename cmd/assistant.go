package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/chat"
	"github.com/iksnae/careertrack/internal/exchange"
	"github.com/spf13/cobra"
)

// assistantCmd represents the assistant command
var assistantCmd = &cobra.Command{
	Use:     "assistant",
	Aliases: []string{"chat"},
	Short:   "Chat with the career assistant",
	Long: `Chat with the general career assistant.

The conversation is not saved. Type /reset to start over and /quit to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		client := exchange.NewAssistantClient(a.cfg.Endpoints.Assistant, a.clientOptions()...)
		conv := chat.NewConversation(client, a.notifier)

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		tr := newTranscript(out)
		interactive := internal.IsTerminal(out)

		internal.PrintInfo(out, "Ask the career assistant anything. /reset starts over, /quit leaves.")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			if interactive {
				fmt.Fprint(out, promptStyle.Render("> "))
			}
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())

			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/reset":
				conv.Reset()
				internal.PrintInfo(out, "Conversation cleared.")
				continue
			}

			reply, err := conv.Send(ctx, line)
			switch {
			case err == nil:
				tr.write(reply)
			case errors.Is(err, internal.ErrBusy):
				internal.PrintWarning(out, "Still waiting for the previous answer.")
			case errors.Is(err, chat.ErrStaleReply):
				internal.LogDebug("ignored reply from before the reset")
			default:
				return err
			}
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(assistantCmd)
}
