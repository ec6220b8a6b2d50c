package exchange

import (
	"context"
	"fmt"

	"github.com/iksnae/careertrack/internal"
)

// ResumeClient talks to the ATS resume analysis service.
type ResumeClient struct {
	c client
}

// NewResumeClient creates a client for the service at baseURL
func NewResumeClient(baseURL string, opts ...Option) *ResumeClient {
	return &ResumeClient{c: newClient("resume", baseURL, opts...)}
}

// ResumeRequest pairs a resume PDF with the job posting it is scored against.
type ResumeRequest struct {
	ResumePath string
	JobLink    string
}

// Validate checks the request before any network call.
func (r ResumeRequest) Validate() error {
	if r.ResumePath == "" {
		return &internal.ValidationError{Field: "resume", Message: "please upload your resume"}
	}
	if err := ValidatePDF("resume", r.ResumePath); err != nil {
		return err
	}
	if r.JobLink == "" {
		return &internal.ValidationError{Field: "job link", Message: "please enter a job posting URL"}
	}
	return ValidateURL("job link", r.JobLink)
}

// Certification is a recommended course or credential.
type Certification struct {
	Name     string `json:"name" yaml:"name"`
	Platform string `json:"platform" yaml:"platform"`
	Link     string `json:"link" yaml:"link"`
}

// MatchReasons explains the match percentage.
type MatchReasons struct {
	Strengths []string `json:"strengths" yaml:"strengths"`
	Gaps      []string `json:"gaps" yaml:"gaps"`
	Alignment []string `json:"alignment" yaml:"alignment"`
}

// Analysis is the scored comparison of a resume with a job posting.
type Analysis struct {
	MatchPercentage           float64         `json:"match_percentage" yaml:"match_percentage"`
	MatchReasons              MatchReasons    `json:"match_reasons" yaml:"match_reasons"`
	MissingKeywords           []string        `json:"missing_keywords" yaml:"missing_keywords"`
	ImprovementSuggestions    []string        `json:"improvement_suggestions" yaml:"improvement_suggestions"`
	RecommendedCertifications []Certification `json:"recommended_certifications" yaml:"recommended_certifications"`
}

// AnalysisResponse is the /analyze answer.
type AnalysisResponse struct {
	Analysis     Analysis `json:"analysis" yaml:"analysis"`
	EmailContent string   `json:"email_content" yaml:"email_content"`
}

// Analyze uploads the resume with the job link and returns the typed analysis.
func (r *ResumeClient) Analyze(ctx context.Context, req ResumeRequest) (*AnalysisResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var raw struct {
		Analysis     *Analysis `json:"analysis"`
		EmailContent string    `json:"email_content"`
	}
	_, err := r.c.postMultipart(ctx, "/analyze", "",
		map[string]string{"job_link": req.JobLink},
		[]filePart{{field: "resume", path: req.ResumePath}},
		&raw)
	if err != nil {
		return nil, err
	}

	if raw.Analysis == nil {
		return nil, &internal.ParseError{Source: r.c.tool, Key: "/analyze", Err: fmt.Errorf("missing \"analysis\" field")}
	}
	if p := raw.Analysis.MatchPercentage; p < 0 || p > 100 {
		return nil, &internal.ParseError{Source: r.c.tool, Key: "/analyze", Err: fmt.Errorf("match_percentage %v out of range", p)}
	}
	return &AnalysisResponse{Analysis: *raw.Analysis, EmailContent: raw.EmailContent}, nil
}
