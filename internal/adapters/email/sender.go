package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a request has no destination address.
var ErrNoRecipients = errors.New("email has no recipients")

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string // Recipient email addresses
	From    string   // Sender address (e.g. "Gimnasio <no-reply@gym.example>"); provider default when empty
	Subject string
	HTML    string // HTML body
	Text    string // plain-text alternative
	ReplyTo string
	Tags    map[string]string // provider tags, e.g. reminder status
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

func validate(req SendRequest) error {
	if len(req.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}
