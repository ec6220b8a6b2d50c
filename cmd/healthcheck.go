package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/careertrack/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckPing    bool
)

var (
	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that careertrack can load its config and history",
	Long: `Check the health of careertrack by verifying:
  • The configuration file loads and validates
  • The history database opens
  • Each tool's saved history decodes
  • Optionally (--ping), that every service endpoint answers`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		fmt.Fprintln(out, sectionStyle.Render("🔍 CareerTrack Health Check"))
		fmt.Fprintln(out)

		var a *app
		counts := map[string]int{}
		steps := []internal.ProgressStep{
			{Message: "Loading configuration and history database", Fn: func() error {
				var err error
				a, err = openApp(cmd)
				return err
			}},
			{Message: "Reading saved conversations", Fn: func() error {
				for _, tool := range []string{"pdf", "repo"} {
					key, _ := historyKey(tool)
					raw, ok, err := a.kv.GetItem(key)
					if err != nil {
						return err
					}
					counts[tool] = a.store(key, nil).Len()
					if ok && raw != "" && counts[tool] == 0 {
						return fmt.Errorf("%s history under %q could not be decoded", tool, key)
					}
				}
				return nil
			}},
		}
		err := internal.ShowProgressWithSteps(ctx, steps)
		if a != nil {
			defer a.Close()
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed:"), err)
			return err
		}

		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if a.db != nil {
			fmt.Fprintln(out, successStyle.Render("✅ History database opened"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  History kept in memory (--no-history)"))
		}
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Database: %s\n", a.dbPath)
			fmt.Fprintf(out, "   Retention: max %d session(s), max age %s (0 = unbounded)\n",
				a.cfg.Storage.MaxSessions, a.cfg.Storage.MaxAge)
		}
		for _, tool := range []string{"pdf", "repo"} {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s history: %d session(s)", tool, counts[tool])))
		}

		failed := 0
		if healthcheckPing {
			fmt.Fprintln(out)
			fmt.Fprintln(out, infoStyle.Render("Checking service endpoints..."))
			failed = pingEndpoints(ctx, out, a.cfg.HTTPClient(), map[string]string{
				"pdf":       a.cfg.Endpoints.PDF,
				"repo":      a.cfg.Endpoints.Repo,
				"resume":    a.cfg.Endpoints.Resume,
				"quiz":      a.cfg.Endpoints.Quiz,
				"assistant": a.cfg.Endpoints.Assistant,
			})
		}

		fmt.Fprintln(out)
		if failed > 0 {
			return fmt.Errorf("%d endpoint(s) unreachable", failed)
		}
		fmt.Fprintln(out, successStyle.Render("✅ All checks passed"))
		return nil
	},
}

// pingEndpoints sends a GET to each base URL and returns how many could not be reached.
// Any HTTP status counts as reachable.
func pingEndpoints(ctx context.Context, out io.Writer, hc *http.Client, endpoints map[string]string) int {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		url := endpoints[name]
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %s: %v", name, err)))
			failed++
			continue
		}
		resp, err := hc.Do(req)
		if err != nil {
			internal.LogDebug("ping %s: %v", url, err)
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %s (%s) unreachable", name, url)))
			failed++
			continue
		}
		_ = resp.Body.Close()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s (%s) %s", name, url, resp.Status)))
	}
	return failed
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "details", "d", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckPing, "ping", false, "Also check that every service endpoint answers")
}
