package chat

import (
	"context"
	"time"

	"github.com/iksnae/careertrack/internal"
	"github.com/iksnae/careertrack/internal/exchange"
)

// Tool binds a controller to one remote service: how a session is prepared,
// how it is titled and greeted, and what the user is told along the way.
type Tool struct {
	Name       string
	StorageKey string

	// Prepare runs the setup call (upload, ingest) for a fresh session.
	Prepare func(ctx context.Context, sessionID, target string) error

	// Greeting seeds the conversation once Prepare succeeded.
	Greeting func(target string) string
	Title    func(target string, now time.Time) string

	// Restore recovers the setup target of a stored session.
	Restore func(s internal.ChatSession) string

	Exchanger   exchange.Exchanger
	FailureText string

	Notices Notices
}

// Notices are the notifications a tool sends at each step.
type Notices struct {
	MissingTarget  internal.Notification
	InvalidTarget  string
	SetupDone      internal.Notification
	SetupFailed    string
	EmptyQuestion  internal.Notification
	NotReady       internal.Notification
	ExchangeFailed string
}

// PDFTool is question answering over an uploaded research paper.
func PDFTool(client *exchange.PDFClient) Tool {
	return Tool{
		Name:        "pdf",
		StorageKey:  internal.PDFHistoryKey,
		Prepare:     client.Upload,
		Greeting:    func(string) string { return exchange.PDFGreeting },
		Title:       internal.FileTitle,
		Restore:     func(s internal.ChatSession) string { return s.Title },
		Exchanger:   client,
		FailureText: exchange.PDFFailureText,
		Notices: Notices{
			MissingTarget: internal.Notification{
				Title:       "No file selected",
				Description: "Please select a PDF file to upload.",
				Variant:     internal.VariantDestructive,
			},
			InvalidTarget: "Invalid file type",
			SetupDone: internal.Notification{
				Title:       "PDF Uploaded Successfully",
				Description: "Your research paper has been processed and is ready for questions.",
				Variant:     internal.VariantSuccess,
			},
			SetupFailed: "Upload failed",
			EmptyQuestion: internal.Notification{
				Title:       "Empty question",
				Description: "Please enter a question to ask.",
				Variant:     internal.VariantDestructive,
			},
			NotReady: internal.Notification{
				Title:       "No PDF processed",
				Description: "Please upload and process a PDF file first.",
				Variant:     internal.VariantDestructive,
			},
			ExchangeFailed: "Failed to get answer",
		},
	}
}

// RepoTool is question answering over an ingested code repository.
func RepoTool(client *exchange.RepoClient) Tool {
	return Tool{
		Name:       "repo",
		StorageKey: internal.RepoHistoryKey,
		Prepare: func(ctx context.Context, sessionID, repoURL string) error {
			return client.Ingest(ctx, repoURL, sessionID)
		},
		Greeting: internal.RepoGreeting,
		Title:    internal.RepoTitle,
		Restore: func(s internal.ChatSession) string {
			u, _ := internal.RepoURLFromSession(s)
			return u
		},
		Exchanger:   client,
		FailureText: exchange.RepoFailureText,
		Notices: Notices{
			MissingTarget: internal.Notification{
				Title:       "Missing repository URL",
				Description: "Please enter a GitHub repository URL",
				Variant:     internal.VariantDestructive,
			},
			InvalidTarget: "Invalid repository URL",
			SetupDone: internal.Notification{
				Title:       "Repository ingested successfully",
				Description: "You can now ask questions about this repository",
				Variant:     internal.VariantSuccess,
			},
			SetupFailed: "Error ingesting repository",
			EmptyQuestion: internal.Notification{
				Title:       "Empty question",
				Description: "Please enter a question to ask.",
				Variant:     internal.VariantDestructive,
			},
			NotReady: internal.Notification{
				Title:       "No repository ingested",
				Description: "Please ingest a repository first before asking questions",
				Variant:     internal.VariantDestructive,
			},
			ExchangeFailed: "Error getting response",
		},
	}
}
