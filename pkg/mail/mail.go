// Package mail sends plain-text notification email over SMTP.
package mail

import (
	"fmt"
	"sync"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers mail through one SMTP account. Sends are serialized by a
// mutex; callers that need throughput should run Send on a worker.
type Sender struct {
	mu     sync.Mutex
	client *gomail.Client
}

// New configures a Sender for the given SMTP endpoint. The connection is
// dialed lazily on the first Send.
func New(host string, port int, username, password string) (*Sender, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring mail client: %w", err)
	}
	return &Sender{client: client}, nil
}

// Send delivers one plain-text message.
func (s *Sender) Send(from string, to []string, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("setting sender %q: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("setting recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}
