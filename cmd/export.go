package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportFor string
	sessionID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved conversations to files",
	Long: `Export saved conversations to various formats (md, json, jsonl, yaml).

Each session is written to its own file and a sessions.yaml index is written
next to them. With --tool all, PDF and repository histories go to separate
subdirectories. Use 'careertrack history list' to find session ids.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		var tools []string
		switch exportFor {
		case "all":
			tools = []string{"pdf", "repo"}
		default:
			if _, err := historyKey(exportFor); err != nil {
				return err
			}
			tools = []string{exportFor}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		total := 0
		for _, tool := range tools {
			key, _ := historyKey(tool)
			sessions := a.store(key, nil).Sessions()
			if sessionID != "" {
				sessions = filterSession(sessions, sessionID)
			}
			if len(sessions) == 0 {
				continue
			}

			dir := outputDir
			if len(tools) > 1 {
				dir = filepath.Join(outputDir, tool)
			}

			var idx *internal.SessionIndex
			err := internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d %s session(s)...", len(sessions), tool), func() error {
				var err error
				idx, err = export.WriteAll(dir, exporter, key, sessions, timeNow())
				return err
			})
			if err != nil {
				return err
			}
			total += len(idx.Sessions)
		}

		if total == 0 {
			if sessionID != "" {
				return fmt.Errorf("session %s: %w", sessionID, internal.ErrSessionNotFound)
			}
			internal.PrintWarning(out, "No saved conversations to export")
			return nil
		}
		internal.PrintSuccess(out, fmt.Sprintf("Exported %d session(s) to %s", total, outputDir))
		return nil
	},
}

func filterSession(sessions []internal.ChatSession, id string) []internal.ChatSession {
	for _, s := range sessions {
		if s.ID == id {
			return []internal.ChatSession{s}
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (md, json, jsonl, yaml)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVarP(&exportFor, "tool", "t", "all", "History to export (pdf, repo, all)")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export only this session")
}
