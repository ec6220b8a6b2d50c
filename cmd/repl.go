package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/chat"
	"github.com/spf13/cobra"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))
)

const chatHelp = `Commands:
  /new            start a new chat
  /history        list saved chats
  /open <id>      reopen a saved chat
  /delete <id>    delete a saved chat
  /help           show this help
  /quit           leave`

// transcript writes chat messages. Assistant replies are markdown and are
// rendered with glamour on a terminal; anything else gets the raw text.
type transcript struct {
	out io.Writer
	md  *glamour.TermRenderer
}

func newTranscript(out io.Writer) *transcript {
	t := &transcript{out: out}
	if internal.IsTerminal(out) {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			internal.LogDebug("markdown renderer unavailable: %v", err)
		} else {
			t.md = md
		}
	}
	return t
}

func (t *transcript) write(msg internal.ChatMessage) {
	if msg.IsUser() {
		fmt.Fprintf(t.out, "%s %s\n", userStyle.Render("you:"), msg.Content)
		return
	}
	if t.md != nil {
		if rendered, err := t.md.Render(msg.Content); err == nil {
			fmt.Fprintf(t.out, "%s\n%s", assistantStyle.Render("assistant:"), rendered)
			return
		}
	}
	fmt.Fprintf(t.out, "%s %s\n", assistantStyle.Render("assistant:"), msg.Content)
}

// markdown prints a markdown document, rendered when possible.
func (t *transcript) markdown(text string) {
	if t.md != nil {
		if rendered, err := t.md.Render(text); err == nil {
			fmt.Fprint(t.out, rendered)
			return
		}
	}
	fmt.Fprintln(t.out, strings.TrimRight(text, "\n"))
}

func (t *transcript) writeAll(msgs []internal.ChatMessage) {
	for _, msg := range msgs {
		t.write(msg)
	}
}

// runChat drives a tool controller from the command's input until EOF or /quit.
// A saved session is reopened when sessionID is set; otherwise target, when
// given, is set up before the first prompt.
func runChat(cmd *cobra.Command, ctrl *chat.Controller, target, sessionID string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	tr := newTranscript(out)
	interactive := internal.IsTerminal(out)

	switch {
	case sessionID != "":
		if err := ctrl.Select(sessionID); err != nil {
			return err
		}
		internal.PrintInfo(out, fmt.Sprintf("Reopened %s", ctrl.Title()))
		tr.writeAll(ctrl.Messages())
	case target != "":
		if err := setupChat(ctx, ctrl, target); err != nil {
			return err
		}
		tr.writeAll(ctrl.Messages())
	default:
		internal.PrintInfo(out, fmt.Sprintf("Enter a %s to begin, or /help.", targetLabel(ctrl.Tool().Name)))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if interactive {
			fmt.Fprint(out, promptStyle.Render("> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" && ctrl.State() == chat.StateNew {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := chatCommand(out, tr, ctrl, line)
			if err != nil {
				internal.PrintWarning(out, err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		if ctrl.State() == chat.StateNew {
			if err := setupChat(ctx, ctrl, line); err == nil {
				tr.writeAll(ctrl.Messages())
			}
			continue
		}

		reply, err := ctrl.Submit(ctx, line)
		switch {
		case err == nil:
			tr.write(reply)
		case errors.Is(err, internal.ErrBusy):
			internal.PrintWarning(out, "Still waiting for the previous answer.")
		case errors.Is(err, chat.ErrStaleReply):
			internal.LogDebug("ignored reply for an abandoned question")
		default:
			// validation and not-ready problems were already notified
			internal.LogDebug("submit: %v", err)
		}
	}
	return scanner.Err()
}

func setupChat(ctx context.Context, ctrl *chat.Controller, target string) error {
	return internal.ShowProgress(ctx, fmt.Sprintf("Preparing %s...", target), func() error {
		return ctrl.Setup(ctx, target)
	})
}

// chatCommand handles a slash command and reports whether the REPL should end.
func chatCommand(out io.Writer, tr *transcript, ctrl *chat.Controller, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/new":
		ctrl.StartNew()
		internal.PrintInfo(out, fmt.Sprintf("New chat. Enter a %s to begin.", targetLabel(ctrl.Tool().Name)))
	case "/history":
		printSessionTable(out, ctrl.History(), ctrl.SessionID())
	case "/open":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /open <id>")
		}
		if err := ctrl.Select(args[0]); err != nil {
			return false, err
		}
		internal.PrintInfo(out, fmt.Sprintf("Reopened %s", ctrl.Title()))
		tr.writeAll(ctrl.Messages())
	case "/delete":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /delete <id>")
		}
		if err := ctrl.Delete(args[0]); err != nil {
			return false, err
		}
		internal.PrintSuccess(out, fmt.Sprintf("Deleted %s", args[0]))
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func targetLabel(tool string) string {
	if tool == "pdf" {
		return "PDF file path"
	}
	return "repository URL"
}
