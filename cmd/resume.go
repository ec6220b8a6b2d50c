package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
	"github.com/spf13/cobra"
)

var (
	resumeJobLink string
	resumeEmail   bool
	resumeOutput  string
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume <resume.pdf>",
	Short: "Score a resume against a job posting",
	Long: `Upload a resume (PDF) with a job posting URL and get an ATS-style analysis:
match percentage, strengths, gaps, missing keywords, suggestions and
recommended certifications.

Examples:
  careertrack resume cv.pdf --job https://jobs.example.com/123
  careertrack resume cv.pdf --job https://jobs.example.com/123 --email
  careertrack resume cv.pdf --job https://jobs.example.com/123 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := exchange.ResumeRequest{ResumePath: args[0], JobLink: resumeJobLink}
		if err := req.Validate(); err != nil {
			return rejectInput(cmd, err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		client := exchange.NewResumeClient(a.cfg.Endpoints.Resume, a.clientOptions()...)

		ctx := cmd.Context()
		var resp *exchange.AnalysisResponse
		err = internal.ShowProgress(ctx, "Analyzing resume...", func() error {
			var err error
			resp, err = client.Analyze(ctx, req)
			return err
		})
		if err != nil {
			a.notifier.Notify(internal.Notification{
				Title:       "Error",
				Description: exchange.FailureDetail(err),
				Variant:     internal.VariantDestructive,
			})
			return err
		}

		out := cmd.OutOrStdout()
		if resumeOutput != "text" {
			return writeStructured(out, resumeOutput, resp)
		}
		newTranscript(out).markdown(analysisMarkdown(resp, resumeEmail))
		return nil
	},
}

// analysisMarkdown lays out the analysis the way the web result cards did.
func analysisMarkdown(resp *exchange.AnalysisResponse, withEmail bool) string {
	an := resp.Analysis
	var b strings.Builder

	fmt.Fprintf(&b, "# Match: %.0f%%\n\n", an.MatchPercentage)
	writeList(&b, "Strengths", an.MatchReasons.Strengths)
	writeList(&b, "Gaps", an.MatchReasons.Gaps)
	writeList(&b, "Alignment", an.MatchReasons.Alignment)
	writeList(&b, "Missing keywords", an.MissingKeywords)
	writeList(&b, "Suggestions", an.ImprovementSuggestions)

	if len(an.RecommendedCertifications) > 0 {
		b.WriteString("## Recommended certifications\n\n")
		for _, c := range an.RecommendedCertifications {
			if c.Link != "" {
				fmt.Fprintf(&b, "- [%s](%s) (%s)\n", c.Name, c.Link, c.Platform)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Platform)
			}
		}
		b.WriteString("\n")
	}

	if withEmail && resp.EmailContent != "" {
		b.WriteString("## Email draft\n\n")
		b.WriteString(resp.EmailContent)
		b.WriteString("\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().StringVar(&resumeJobLink, "job", "", "Job posting URL (required)")
	resumeCmd.Flags().BoolVar(&resumeEmail, "email", false, "Include the generated email draft")
	resumeCmd.Flags().StringVarP(&resumeOutput, "output", "o", "text", "Output format (text, json, yaml)")
}
