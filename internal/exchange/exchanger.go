package exchange

import "context"

// Request is one question sent to a conversational service.
type Request struct {
	// ID correlates the reply with this request.
	ID        string
	SessionID string
	Question  string
}

// Reply is the text a service answered with.
type Reply struct {
	RequestID string
	Text      string
}

// Exchanger is a conversational service: one request in, one reply out.
type Exchanger interface {
	Ask(ctx context.Context, req Request) (Reply, error)
}
