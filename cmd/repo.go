package cmd

import (
	"github.com/spf13/cobra"
)

var repoSessionID string

// repoCmd represents the repo command
var repoCmd = &cobra.Command{
	Use:     "repo [repository-url]",
	Aliases: []string{"github"},
	Short:   "Ask questions about a code repository",
	Long: `Ingest a public GitHub repository and ask questions about its code.

Conversations are saved to the repository history. Reopen one with --session.

Examples:
  careertrack repo https://github.com/owner/repo
  careertrack repo --session 3f2c9a1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctrl, err := a.controller("repo")
		if err != nil {
			return err
		}

		var target string
		if len(args) > 0 {
			target = args[0]
		}
		return runChat(cmd, ctrl, target, repoSessionID)
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.Flags().StringVar(&repoSessionID, "session", "", "Reopen a saved repository conversation")
}
