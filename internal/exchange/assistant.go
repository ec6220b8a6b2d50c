package exchange

import (
	"context"
	"strings"
)

// AssistantEmptyReply replaces a blank answer from the general assistant.
const AssistantEmptyReply = "Sorry, I couldn't process your request at the moment."

// AssistantClient talks to the general-purpose career assistant.
// The service keeps no session, so Request.SessionID is not sent.
type AssistantClient struct {
	c client
}

// NewAssistantClient creates a client for the service at baseURL
func NewAssistantClient(baseURL string, opts ...Option) *AssistantClient {
	return &AssistantClient{c: newClient("assistant", baseURL, opts...)}
}

// Ask implements Exchanger
func (a *AssistantClient) Ask(ctx context.Context, req Request) (Reply, error) {
	var resp struct {
		Response string `json:"response"`
	}
	echoed, err := a.c.postJSON(ctx, "/chat", req.ID, map[string]string{"message": req.Question}, &resp)
	if err != nil {
		return Reply{RequestID: echoed}, err
	}
	text := resp.Response
	if strings.TrimSpace(text) == "" {
		text = AssistantEmptyReply
	}
	return Reply{RequestID: echoed, Text: text}, nil
}
