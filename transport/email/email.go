// Package email delivers reminder emails over SMTP.
package email

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/ckr3453/finito/domain"
)

// Sender is a thin adapter around an SMTP dialer.
type Sender struct {
	dialer *gomail.Dialer
}

func NewSender(host string, port int, username, password string) *Sender {
	return &Sender{dialer: gomail.NewDialer(host, port, username, password)}
}

// Send delivers one message. gomail carries no context; the dialer's own
// connection timeouts bound the call, and the dispatcher treats a timeout
// as a plain send failure.
func (s *Sender) Send(_ context.Context, msg domain.EmailMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return s.dialer.DialAndSend(m)
}
