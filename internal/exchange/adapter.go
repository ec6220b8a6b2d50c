package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/careertrack/internal"
)

// Failure texts shown in place of a reply when an exchange fails.
const (
	PDFFailureText       = "I'm sorry, I encountered an error while processing your question. Please try again."
	RepoFailureText      = "Sorry, I encountered an error while processing your question. Please try again."
	AssistantFailureText = "I'm having trouble connecting right now. Please try again later."
)

const defaultFailureTitle = "Error"

// Result is the outcome of one exchange. Message is always usable: it holds
// the reply on success and the failure text otherwise. Err records what went wrong.
type Result struct {
	RequestID string
	Message   internal.ChatMessage
	Err       error
}

// Adapter normalizes an Exchanger into exactly one assistant message per
// utterance, reporting failures on the notifier instead of to the caller.
type Adapter struct {
	Exchanger    Exchanger
	Notifier     internal.Notifier
	FailureText  string
	FailureTitle string

	// FailureDescription, when set, replaces the error detail in the notification.
	FailureDescription string

	// Now stamps messages; defaults to time.Now.
	Now func() time.Time
}

func (a *Adapter) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Exchange sends utterance for sessionID and returns the resulting message.
// requestID correlates the reply; an empty one is generated.
func (a *Adapter) Exchange(ctx context.Context, sessionID, requestID, utterance string) Result {
	if requestID == "" {
		requestID = uuid.NewString()
	}

	reply, err := a.Exchanger.Ask(ctx, Request{ID: requestID, SessionID: sessionID, Question: utterance})
	if err != nil {
		return a.fail(requestID, err)
	}

	// proxies may stamp their own id; the round trip already pairs the reply
	if reply.RequestID != "" && reply.RequestID != requestID {
		internal.LogDebug("exchange %s answered with request id %s", requestID, reply.RequestID)
	}
	return Result{RequestID: requestID, Message: internal.NewAssistantMessage(reply.Text, a.now())}
}

func (a *Adapter) fail(requestID string, err error) Result {
	internal.LogError("exchange %s failed: %v", requestID, err)

	if a.Notifier != nil {
		title := a.FailureTitle
		if title == "" {
			title = defaultFailureTitle
		}
		desc := a.FailureDescription
		if desc == "" {
			desc = FailureDetail(err)
		}
		a.Notifier.Notify(internal.Notification{
			Title:       title,
			Description: desc,
			Variant:     internal.VariantDestructive,
		})
	}

	return Result{
		RequestID: requestID,
		Message:   internal.NewAssistantMessage(a.FailureText, a.now()),
		Err:       err,
	}
}

// FailureDetail is the user-facing description of err: the server's detail
// when it sent one, otherwise the error text.
func FailureDetail(err error) string {
	var rerr *internal.RemoteError
	if errors.As(err, &rerr) && rerr.Detail != "" {
		return rerr.Detail
	}
	return err.Error()
}
