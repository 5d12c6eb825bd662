// Package push multicasts reminders through Firebase Cloud Messaging.
package push

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/ckr3453/finito/domain"
)

// Sender is a thin adapter around the FCM messaging client.
type Sender struct {
	client *messaging.Client
}

// NewSender builds the FCM client. With an empty credentials file path the
// SDK falls back to application default credentials.
func NewSender(ctx context.Context, credentialsFile string) (*Sender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &Sender{client: client}, nil
}

// Send multicasts one notification to all tokens in the message and maps
// the batch response to per-token outcomes.
func (s *Sender) Send(ctx context.Context, msg domain.PushMessage) ([]domain.PushResult, error) {
	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       msg.Tokens,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	if err != nil {
		return nil, err
	}
	results := make([]domain.PushResult, 0, len(resp.Responses))
	for i, r := range resp.Responses {
		res := domain.PushResult{Token: msg.Tokens[i]}
		if r.Error != nil {
			res.Err = r.Error
			res.Permanent = permanent(r.Error)
		}
		results = append(results, res)
	}
	return results, nil
}

// permanent reports token errors that will never succeed again:
// unregistered tokens and malformed registrations.
func permanent(err error) bool {
	return messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err)
}
