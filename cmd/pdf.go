package cmd

import (
	"github.com/spf13/cobra"
)

var pdfSessionID string

// pdfCmd represents the pdf command
var pdfCmd = &cobra.Command{
	Use:   "pdf [file.pdf]",
	Short: "Ask questions about a research paper",
	Long: `Upload a research paper (PDF) and ask questions about it.

Each question and answer is saved to the PDF history as you go. Reopen an
earlier conversation with --session; 'careertrack history list --tool pdf'
shows the ids.

Examples:
  careertrack pdf attention.pdf
  careertrack pdf --session 3f2c9a1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctrl, err := a.controller("pdf")
		if err != nil {
			return err
		}

		var target string
		if len(args) > 0 {
			target = args[0]
		}
		return runChat(cmd, ctrl, target, pdfSessionID)
	},
}

func init() {
	rootCmd.AddCommand(pdfCmd)
	pdfCmd.Flags().StringVar(&pdfSessionID, "session", "", "Reopen a saved PDF conversation")
}
