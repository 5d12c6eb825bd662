package domain

import "context"

// EmailMessage is one reminder email. There is exactly one address per
// user, so each send carries a single recipient.
type EmailMessage struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// EmailSender is the email transport boundary.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// PushMessage is a single multicast call covering all of a user's tokens.
type PushMessage struct {
	Title  string
	Body   string
	Data   map[string]string
	Tokens []string
}

// PushResult is the per-token outcome of a multicast call. Permanent marks
// tokens the transport reported as never deliverable again (unregistered
// or invalid registration); those are pruned from the user's registry.
type PushResult struct {
	Token     string
	Err       error
	Permanent bool
}

// PushSender is the push transport boundary. The returned slice has one
// entry per token in the message; a non-nil error means the multicast call
// itself did not complete.
type PushSender interface {
	Send(ctx context.Context, msg PushMessage) ([]PushResult, error)
}
