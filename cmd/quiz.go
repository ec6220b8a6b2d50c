package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
	"github.com/spf13/cobra"
)

var (
	quizText   string
	quizNum    int
	quizLevel  string
	quizOutput string
)

// quizCmd represents the quiz command
var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate and take a multiple-choice quiz",
	Long: `Generate a multiple-choice quiz from a subject name or a block of text.

In text mode the questions are asked one by one (answer a, b, c or d) and the
attempt is scored at the end. With --output json or yaml the quiz is printed
with its answers instead.

Examples:
  careertrack quiz --text "Operating systems" --num 10 --level hard
  careertrack quiz --text "$(cat notes.txt)" --output yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := exchange.QuizRequest{TextContent: quizText, NumQuestions: quizNum, QuizLevel: quizLevel}
		req.Normalize()
		if err := req.Validate(); err != nil {
			return rejectInput(cmd, err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		client := exchange.NewQuizClient(a.cfg.Endpoints.Quiz, a.clientOptions()...)

		ctx := cmd.Context()
		var quiz *exchange.Quiz
		msg := fmt.Sprintf("Generating %d %s questions...", req.NumQuestions, strings.ToLower(req.QuizLevel))
		err = internal.ShowProgress(ctx, msg, func() error {
			var err error
			quiz, err = client.Generate(ctx, req)
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
		if quizOutput != "text" {
			return writeStructured(out, quizOutput, quiz)
		}
		return takeQuiz(cmd.InOrStdin(), out, quiz)
	},
}

// takeQuiz asks every question, then submits and prints the score with a review.
func takeQuiz(in io.Reader, out io.Writer, quiz *exchange.Quiz) error {
	attempt := exchange.NewAttempt(quiz)
	scanner := bufio.NewScanner(in)

	for i, q := range quiz.MCQs {
		fmt.Fprintf(out, "\n%s %s\n", titleStyle.Render(fmt.Sprintf("Q%d.", i+1)), q.MCQ)
		for _, key := range []string{"a", "b", "c", "d"} {
			text, _ := q.Options.Get(key)
			fmt.Fprintf(out, "  %s) %s\n", key, text)
		}
		for {
			fmt.Fprint(out, promptStyle.Render("answer> "))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return err
				}
				return fmt.Errorf("quiz abandoned after %d of %d questions", i, len(quiz.MCQs))
			}
			if err := attempt.Answer(i, scanner.Text()); err != nil {
				internal.PrintWarning(out, err.Error())
				continue
			}
			break
		}
	}

	score, err := attempt.Submit()
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Score: %d/%d (%d%%)", score.Correct, score.Total, score.Percentage)))
	for _, answer := range attempt.Answers() {
		q := quiz.MCQs[answer.QuestionIndex]
		if answer.IsCorrect {
			fmt.Fprintf(out, "%s Q%d\n", successStyle.Render("✓"), answer.QuestionIndex+1)
			continue
		}
		correct, _ := q.Options.Get(q.Correct)
		fmt.Fprintf(out, "%s Q%d: you chose %s, correct is %s) %s\n",
			errorStyle.Render("✗"), answer.QuestionIndex+1, answer.SelectedOption, q.Correct, correct)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.Flags().StringVarP(&quizText, "text", "t", "", "Subject name or text to build the quiz from")
	quizCmd.Flags().IntVarP(&quizNum, "num", "n", exchange.DefaultNumQuestions, "Number of questions")
	quizCmd.Flags().StringVarP(&quizLevel, "level", "l", exchange.LevelMedium, "Difficulty (easy, medium, hard)")
	quizCmd.Flags().StringVarP(&quizOutput, "output", "o", "text", "Output format (text, json, yaml)")
}
