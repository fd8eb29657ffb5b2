package email

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
	jwemail "github.com/jordan-wright/email"
)

// SMTPConfig holds the relay settings for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends emails through a plain SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, e *jwemail.Email) error
}

// NewSMTPSender creates a sender for the given relay.
// PRE: cfg.Host is non-empty
// POST: Returns a ready-to-use sender; no connection is opened until Send
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		send: func(addr string, a smtp.Auth, e *jwemail.Email) error {
			return e.Send(addr, a)
		},
	}
}

// Send delivers one email over SMTP.
// The relay protocol has no context support; ctx is only checked before dialing.
// PRE: req has at least one recipient
// POST: Email accepted by the relay; returns the generated Message-Id
func (s *SMTPSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := validate(req); err != nil {
		return SendResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	e := jwemail.NewEmail()
	e.From = req.From
	if e.From == "" {
		e.From = s.cfg.From
	}
	e.To = req.To
	e.Subject = req.Subject
	e.HTML = []byte(req.HTML)
	e.Text = []byte(req.Text)
	if req.ReplyTo != "" {
		e.ReplyTo = []string{req.ReplyTo}
	}
	id := uuid.NewString()
	e.Headers.Set("Message-Id", "<"+id+"@gymcrm>")

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, e); err != nil {
		slog.Error("smtp_send_failed", "error", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	slog.Info("smtp_sent", "message_id", id, "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}
