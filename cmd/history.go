package cmd

import (
	"fmt"

	"github.com/iksnae/careertrack/internal"
	"github.com/spf13/cobra"
)

var historyTool string

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved conversations",
	Long: `List, show, delete and prune saved PDF and repository conversations.

Each tool keeps its own history; pick one with --tool (pdf or repo).`,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
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
		store := a.store(key, nil)
		if _, ok := store.GetChat(args[0]); !ok {
			return fmt.Errorf("%s session %s: %w", historyTool, args[0], internal.ErrSessionNotFound)
		}
		if err := store.DeleteChat(args[0]); err != nil {
			return &internal.StorageError{Op: "delete", Key: key, Err: err}
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %s", args[0]))
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention settings to a tool's history",
	Long: `Drop sessions beyond storage.max_sessions or older than storage.max_age.

Nothing is removed when both settings are zero (the default).`,
	Args: cobra.NoArgs,
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
		removed, err := a.store(key, nil).Prune()
		if err != nil {
			return &internal.StorageError{Op: "prune", Key: key, Err: err}
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Pruned %d session(s) from %s history", removed, historyTool))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.PersistentFlags().StringVarP(&historyTool, "tool", "t", "pdf", "Tool history to use (pdf, repo)")
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyPruneCmd)
}
