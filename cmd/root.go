package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/careertrack/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dbPath     string
	noHistory  bool
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "careertrack",
	Short: "AI-assisted career tools for students",
	Long: `A command-line client for the CareerTrack AI services.

Features:
  • Ask questions about a research paper (PDF)
  • Ask questions about a code repository
  • Score a resume against a job posting
  • Generate and take a multiple-choice quiz
  • Chat with a general career assistant

PDF and repository conversations are kept per tool and can be reopened,
deleted or exported later.

Quick Start:
  careertrack pdf paper.pdf                       # Upload a paper and ask questions
  careertrack repo https://github.com/owner/repo  # Ingest a repository and ask questions
  careertrack history list --tool pdf             # List saved PDF conversations
  careertrack resume cv.pdf --job <url>           # Score a resume`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.careertrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "History database (overrides storage.db_path)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Keep conversations in memory only for this run")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
