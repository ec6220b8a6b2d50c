package exchange

import (
	"context"
	"net/url"
	"strings"

	"github.com/iksnae/careertrack/internal"
)

// RepoClient talks to the repository Q&A service.
type RepoClient struct {
	c client
}

// NewRepoClient creates a client for the service at baseURL
func NewRepoClient(baseURL string, opts ...Option) *RepoClient {
	return &RepoClient{c: newClient("repo", baseURL, opts...)}
}

type ingestRequest struct {
	RepoURL   string `json:"repo_url"`
	SessionID string `json:"session_id"`
}

type repoChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// Ingest asks the service to clone and index repoURL for sessionID.
func (r *RepoClient) Ingest(ctx context.Context, repoURL, sessionID string) error {
	if err := ValidateURL("repository URL", repoURL); err != nil {
		return err
	}
	_, err := r.c.postJSON(ctx, "/ingest", "", ingestRequest{RepoURL: repoURL, SessionID: sessionID}, nil)
	return err
}

// Ask implements Exchanger
func (r *RepoClient) Ask(ctx context.Context, req Request) (Reply, error) {
	var resp textResponse
	echoed, err := r.c.postJSON(ctx, "/chat", req.ID, repoChatRequest{SessionID: req.SessionID, Question: req.Question}, &resp)
	if err != nil {
		return Reply{RequestID: echoed}, err
	}
	text, err := resp.text(r.c.tool, "/chat")
	if err != nil {
		return Reply{RequestID: echoed}, err
	}
	return Reply{RequestID: echoed, Text: text}, nil
}

// ValidateURL requires an absolute http(s) URL.
func ValidateURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &internal.ValidationError{Field: field, Message: "a URL is required"}
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &internal.ValidationError{Field: field, Message: "please enter a valid URL"}
	}
	return nil
}
