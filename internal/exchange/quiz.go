package exchange

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/iksnae/careertrack/internal"
)

// Quiz difficulty levels accepted by the generator.
const (
	LevelEasy   = "Easy"
	LevelMedium = "Medium"
	LevelHard   = "Hard"
)

const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 20
)

// QuizClient talks to the quiz generation service.
type QuizClient struct {
	c client
}

// NewQuizClient creates a client for the service at baseURL
func NewQuizClient(baseURL string, opts ...Option) *QuizClient {
	return &QuizClient{c: newClient("quiz", baseURL, opts...)}
}

// QuizRequest is the /generate-quiz body.
type QuizRequest struct {
	TextContent  string `json:"text_content"`
	NumQuestions int    `json:"num_questions"`
	QuizLevel    string `json:"quiz_level"`
}

// Normalize fills defaults and canonicalizes the level spelling.
func (r *QuizRequest) Normalize() {
	if r.NumQuestions == 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	if r.QuizLevel == "" {
		r.QuizLevel = LevelMedium
	}
	for _, level := range []string{LevelEasy, LevelMedium, LevelHard} {
		if strings.EqualFold(r.QuizLevel, level) {
			r.QuizLevel = level
		}
	}
}

// Validate checks the request before any network call.
func (r QuizRequest) Validate() error {
	if strings.TrimSpace(r.TextContent) == "" {
		return &internal.ValidationError{Field: "text content", Message: "please enter text content or a subject name"}
	}
	if r.NumQuestions < 1 || r.NumQuestions > MaxNumQuestions {
		return &internal.ValidationError{Field: "number of questions", Message: fmt.Sprintf("must be between 1 and %d", MaxNumQuestions)}
	}
	switch r.QuizLevel {
	case LevelEasy, LevelMedium, LevelHard:
		return nil
	default:
		return &internal.ValidationError{Field: "quiz level", Message: fmt.Sprintf("%q is not one of Easy, Medium, Hard", r.QuizLevel)}
	}
}

// Options are the four answer choices of a question.
type Options struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
	C string `json:"c" yaml:"c"`
	D string `json:"d" yaml:"d"`
}

// Get returns the text of the option keyed a-d.
func (o Options) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "a":
		return o.A, true
	case "b":
		return o.B, true
	case "c":
		return o.C, true
	case "d":
		return o.D, true
	}
	return "", false
}

// Question is one multiple-choice question.
type Question struct {
	MCQ     string  `json:"mcq" yaml:"mcq"`
	Options Options `json:"options" yaml:"options"`
	Correct string  `json:"correct" yaml:"correct"`
}

// Quiz is the generated question set.
type Quiz struct {
	MCQs []Question `json:"mcqs" yaml:"mcqs"`
}

// Validate rejects quizzes the grader could not score.
func (q Quiz) Validate() error {
	if len(q.MCQs) == 0 {
		return fmt.Errorf("quiz has no questions")
	}
	for i, mcq := range q.MCQs {
		if strings.TrimSpace(mcq.MCQ) == "" {
			return fmt.Errorf("question %d has no text", i+1)
		}
		for _, key := range []string{"a", "b", "c", "d"} {
			if text, _ := mcq.Options.Get(key); strings.TrimSpace(text) == "" {
				return fmt.Errorf("question %d is missing option %s", i+1, key)
			}
		}
		if _, ok := mcq.Options.Get(mcq.Correct); !ok {
			return fmt.Errorf("question %d has invalid correct answer %q", i+1, mcq.Correct)
		}
	}
	return nil
}

// Generate requests a quiz and validates its shape.
func (q *QuizClient) Generate(ctx context.Context, req QuizRequest) (*Quiz, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var quiz Quiz
	if _, err := q.c.postJSON(ctx, "/generate-quiz", "", req, &quiz); err != nil {
		return nil, err
	}
	if err := quiz.Validate(); err != nil {
		return nil, &internal.ParseError{Source: q.c.tool, Key: "/generate-quiz", Err: err}
	}
	for i := range quiz.MCQs {
		quiz.MCQs[i].Correct = strings.ToLower(quiz.MCQs[i].Correct)
	}
	return &quiz, nil
}

// Answer is the option picked for one question.
type Answer struct {
	QuestionIndex  int
	SelectedOption string
	IsCorrect      bool
}

// Score is the result of a submitted attempt.
type Score struct {
	Correct    int
	Total      int
	Percentage int
}

// Attempt records answers to a quiz until it is submitted.
type Attempt struct {
	quiz      *Quiz
	answers   []Answer
	submitted bool
}

// NewAttempt starts answering quiz
func NewAttempt(quiz *Quiz) *Attempt {
	return &Attempt{quiz: quiz}
}

// Answer records option for question i, replacing an earlier answer.
func (a *Attempt) Answer(i int, option string) error {
	if a.submitted {
		return fmt.Errorf("quiz already submitted")
	}
	if i < 0 || i >= len(a.quiz.MCQs) {
		return &internal.ValidationError{Field: "question", Message: fmt.Sprintf("no question %d", i+1)}
	}
	option = strings.ToLower(strings.TrimSpace(option))
	if _, ok := a.quiz.MCQs[i].Options.Get(option); !ok {
		return &internal.ValidationError{Field: "option", Message: fmt.Sprintf("%q is not one of a, b, c, d", option)}
	}

	answer := Answer{
		QuestionIndex:  i,
		SelectedOption: option,
		IsCorrect:      a.quiz.MCQs[i].Correct == option,
	}
	for j := range a.answers {
		if a.answers[j].QuestionIndex == i {
			a.answers[j] = answer
			return nil
		}
	}
	a.answers = append(a.answers, answer)
	return nil
}

// Answers returns the recorded answers in the order they were first given.
func (a *Attempt) Answers() []Answer {
	return append([]Answer(nil), a.answers...)
}

// Submit scores the attempt. Every question must be answered.
func (a *Attempt) Submit() (Score, error) {
	total := len(a.quiz.MCQs)
	if len(a.answers) < total {
		return Score{}, &internal.ValidationError{Field: "answers", Message: "please answer all questions before submitting"}
	}
	a.submitted = true

	correct := 0
	for _, answer := range a.answers {
		if answer.IsCorrect {
			correct++
		}
	}
	return Score{
		Correct:    correct,
		Total:      total,
		Percentage: int(math.Round(float64(correct) / float64(total) * 100)),
	}, nil
}
