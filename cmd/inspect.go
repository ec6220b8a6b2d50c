package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleSize int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the raw history store",
	Long: `Inspect the key/value store that holds conversation history.

This command lists every key with the size of its value, how many sessions
the value decodes to, and optionally the beginning of the raw value.

Examples:
  careertrack inspect
  careertrack inspect --format json --sample 200`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		pairs, err := a.kv.Items("%")
		if err != nil {
			return fmt.Errorf("failed to read history store: %w", err)
		}

		type keyInfo struct {
			Key      string `json:"key"`
			Bytes    int    `json:"bytes"`
			Sessions int    `json:"sessions"`
			Valid    bool   `json:"valid"`
			Sample   string `json:"sample,omitempty"`
		}
		infos := make([]keyInfo, 0, len(pairs))
		for _, pair := range pairs {
			info := keyInfo{Key: pair.Key, Bytes: len(pair.Value)}
			var sessions []json.RawMessage
			if err := json.Unmarshal([]byte(pair.Value), &sessions); err == nil {
				info.Valid = true
				info.Sessions = len(sessions)
			}
			if inspectSampleSize > 0 {
				info.Sample = truncate(pair.Value, inspectSampleSize)
			}
			infos = append(infos, info)
		}

		out := cmd.OutOrStdout()
		if inspectFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"database": a.dbPath,
				"keys":     infos,
			})
		}

		if a.dbPath != "" {
			fmt.Fprintf(out, "📊 Inspecting %s\n\n", a.dbPath)
		}
		if len(infos) == 0 {
			fmt.Fprintln(out, "No keys stored")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "KEY\tBYTES\tSESSIONS\t")
		for _, info := range infos {
			sessions := fmt.Sprintf("%d", info.Sessions)
			if !info.Valid {
				sessions = "undecodable"
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t\n", info.Key, info.Bytes, sessions)
		}
		_ = w.Flush()

		for _, info := range infos {
			if info.Sample == "" {
				continue
			}
			fmt.Fprintf(out, "\n%s\n  %s\n", info.Key, info.Sample)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleSize, "sample", 0, "Show the first N bytes of each value")
}
