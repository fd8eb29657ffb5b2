package orchestrators

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	emailAdapter "gymcrm/internal/adapters/email"
	"gymcrm/internal/application/snapshot"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
	"gymcrm/internal/domain/reminder"
)

// Reminder outcomes.
const (
	OutcomeSent        = "sent"
	OutcomeWouldSend   = "would_send"
	OutcomeAlreadySent = "already_sent"
	OutcomeNoEmail     = "no_email"
	OutcomeFailed      = "failed"
)

// mdRenderer renders reminder bodies. Raw HTML in client names is escaped.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// SnapshotReader provides the current snapshot.
type SnapshotReader interface {
	Current() *snapshot.Snapshot
}

// SendPaymentRemindersInput carries input for a reminder run.
type SendPaymentRemindersInput struct {
	DryRun bool // evaluate and render without sending or recording
}

// SendPaymentRemindersDeps holds dependencies for ExecuteSendPaymentReminders.
type SendPaymentRemindersDeps struct {
	Snapshots   SnapshotReader
	Engine      *membership.Engine
	Reminders   ReminderStore
	Sender      emailAdapter.Sender
	Metrics     ReminderMetrics // optional
	GymName     string
	FromAddress string
	ReplyTo     string
	GenerateID  func() string
	Now         func() time.Time
}

// ReminderOutcome describes what happened for one client.
type ReminderOutcome struct {
	ClientID  string
	Name      string
	Email     string
	Status    membership.Status
	Days      int
	DueDate   string
	Subject   string
	Outcome   string
	MessageID string
	Error     string
}

// SendPaymentRemindersResult summarizes a reminder run.
type SendPaymentRemindersResult struct {
	DryRun   bool
	Outcomes []ReminderOutcome
	Sent     int
	Skipped  int
	Failed   int
}

// ExecuteSendPaymentReminders e-mails every due-soon or overdue client once per
// due date and status.
// PRE: Deps are non-nil except Metrics; Sender may be nil in dry-run mode
// POST: each sent reminder is recorded; a failed send is reported and retried next run
func ExecuteSendPaymentReminders(ctx context.Context, input SendPaymentRemindersInput, deps SendPaymentRemindersDeps) (SendPaymentRemindersResult, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.GenerateID
	if newID == nil {
		newID = uuid.NewString
	}

	snap := deps.Snapshots.Current()
	today := deps.Engine.Today()
	clients := snap.Clients()
	slices.SortFunc(clients, func(a, b client.Client) int { return cmp.Compare(a.ID, b.ID) })

	result := SendPaymentRemindersResult{DryRun: input.DryRun}
	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := membership.Evaluate(c, snap.PaymentsOf(c.ID), today)
		if !res.Status.NeedsReminder() {
			continue
		}
		due := res.DueDate
		if due.IsZero() {
			// Never paid: one reminder per status, keyed on registration.
			due = c.RegistrationDate
		}
		out := ReminderOutcome{
			ClientID: c.ID,
			Name:     c.DisplayName(),
			Email:    c.Email,
			Status:   res.Status,
			Days:     res.Days,
			DueDate:  dates.Format(res.DueDate),
		}

		switch {
		case !c.CanReceiveEmail():
			out.Outcome = OutcomeNoEmail
		default:
			sent, err := deps.Reminders.Exists(ctx, c.ID, due, string(res.Status))
			if err != nil {
				return result, fmt.Errorf("check reminder for client %s: %w", c.ID, err)
			}
			if sent {
				out.Outcome = OutcomeAlreadySent
				break
			}
			req, err := renderReminder(c, res, deps)
			if err != nil {
				return result, err
			}
			out.Subject = req.Subject
			if input.DryRun {
				out.Outcome = OutcomeWouldSend
				break
			}
			sendResult, err := deps.Sender.Send(ctx, req)
			if err != nil {
				out.Outcome, out.Error = OutcomeFailed, err.Error()
				slog.Error("reminder_send_failed", "client_id", c.ID, "status", res.Status, "error", err)
				break
			}
			out.Outcome, out.MessageID = OutcomeSent, sendResult.MessageID
			rec := reminder.Reminder{
				ID:        newID(),
				ClientID:  c.ID,
				DueDate:   due,
				Status:    string(res.Status),
				SentAt:    now().UTC(),
				MessageID: sendResult.MessageID,
			}
			if err := deps.Reminders.Save(ctx, rec); err != nil {
				slog.Error("reminder_record_failed", "client_id", c.ID, "message_id", sendResult.MessageID, "error", err)
			}
		}

		switch out.Outcome {
		case OutcomeSent, OutcomeWouldSend:
			result.Sent++
		case OutcomeFailed:
			result.Failed++
		default:
			result.Skipped++
		}
		if deps.Metrics != nil && !input.DryRun {
			deps.Metrics.CountReminder(string(res.Status), out.Outcome)
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	slog.Info("reminders_completed", "dry_run", input.DryRun, "sent", result.Sent, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func renderReminder(c client.Client, res membership.Result, deps SendPaymentRemindersDeps) (emailAdapter.SendRequest, error) {
	gym := deps.GymName
	if gym == "" {
		gym = "el gimnasio"
	}
	var md strings.Builder
	fmt.Fprintf(&md, "Hola **%s**,\n\n", c.DisplayName())

	var subject string
	switch {
	case res.Status == membership.StatusDueSoon && res.Days == 0:
		subject = "Tu membresía vence hoy"
		fmt.Fprintf(&md, "Tu membresía en %s vence **hoy** (%s).\n\n", gym, dates.Format(res.DueDate))
	case res.Status == membership.StatusDueSoon:
		subject = "Tu membresía vence pronto"
		fmt.Fprintf(&md, "Tu membresía en %s vence el **%s**, en %d días.\n\n", gym, dates.Format(res.DueDate), res.Days)
	case res.LastPayment == nil:
		subject = "Tu membresía está pendiente de pago"
		fmt.Fprintf(&md, "Todavía no registramos ningún pago de tu membresía en %s.\n\n", gym)
	default:
		subject = "Tu membresía está vencida"
		fmt.Fprintf(&md, "Tu membresía en %s venció el **%s**, hace %d días.\n\n", gym, dates.Format(res.DueDate), res.Days)
	}
	md.WriteString("Podés renovarla en recepción o respondiendo este correo.\n")

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md.String()), &buf); err != nil {
		return emailAdapter.SendRequest{}, fmt.Errorf("render reminder: %w", err)
	}
	return emailAdapter.SendRequest{
		To:      []string{c.Email},
		From:    deps.FromAddress,
		Subject: subject,
		HTML:    buf.String(),
		Text:    md.String(),
		ReplyTo: deps.ReplyTo,
		Tags:    map[string]string{"kind": "payment_reminder", "status": string(res.Status)},
	}, nil
}
