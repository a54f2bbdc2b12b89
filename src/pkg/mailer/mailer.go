// Package mailer delivers the rendered report over SMTP with a bounded retry loop
// on top of a shared connection pool.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// ErrDelivery marks a report that could not be handed to the SMTP server.
var ErrDelivery = errors.New("email delivery failed")

// Transport hands one built message to an SMTP server. *Pool implements it.
type Transport interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// Message is one report email.
type Message struct {
	Subject    string
	HTML       string
	Text       string   // plain-text alternative, optional
	Recipients []string // falls back to Config.To when empty
	RunID      string
}

// Receipt describes an accepted delivery.
type Receipt struct {
	MessageID string `json:"messageId"`
	Attempts  int    `json:"attempts"`
}

type Mailer struct {
	cfg       Config
	transport Transport
	sleep     func(ctx context.Context, delay time.Duration) error
}

func New(cfg Config, transport Transport) *Mailer {
	return &Mailer{cfg: cfg, transport: transport, sleep: sleepContext}
}

/*
Send builds the message once and tries to deliver it up to Config.Retries times.

Between attempts it waits attempt*RetryDelaySeconds (2s, 4s, ... by default).
Every failed attempt is logged with whatever the SMTP server told us. When the
attempts run out the returned error wraps ErrDelivery and the last failure.
*/
func (m *Mailer) Send(ctx context.Context, message Message) (receipt Receipt, e *xerr.Error) {
	recipients := message.Recipients
	if len(recipients) == 0 {
		recipients = m.cfg.To
	}
	if len(recipients) == 0 {
		return receipt, xerr.NewError(fmt.Errorf("%w: no recipients configured", ErrDelivery), "Unable to send report email", "set EMAIL_TO or mailer.to")
	}

	msg, buildErr := m.buildMessage(message, recipients)
	if buildErr != nil {
		return receipt, xerr.NewErrorECOL(fmt.Errorf("%w: %w", ErrDelivery, buildErr), "Unable to build report email", "recipients", strings.Join(recipients, ", "))
	}
	receipt.MessageID = msg.GetMessageID()

	attempts := max(m.cfg.Retries, 1)
	baseDelay := time.Duration(m.cfg.RetryDelaySeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		receipt.Attempts = attempt
		tl.Log(tl.Info1, palette.Blue, "Sending report email to %s (attempt %s/%s)", recipients, attempt, attempts)

		lastErr = m.transport.Send(ctx, msg)
		if lastErr == nil {
			tl.Log(tl.Notice, palette.Green, "Report email %s, message id %s", "sent", receipt.MessageID)
			return receipt, nil
		}
		logFailure(attempt, attempts, lastErr)

		if attempt == attempts {
			break
		}
		delay := time.Duration(attempt) * baseDelay
		tl.Log(tl.Detailed, palette.Yellow, "Retrying in %s", delay)
		if sleepErr := m.sleep(ctx, delay); sleepErr != nil {
			lastErr = errors.Join(lastErr, sleepErr)
			break
		}
	}

	return receipt, xerr.NewErrorECOL(
		fmt.Errorf("%w after %d attempts: %w", ErrDelivery, receipt.Attempts, lastErr),
		"Unable to send report email", "recipients", strings.Join(recipients, ", "),
	)
}

func (m *Mailer) buildMessage(message Message, recipients []string) (msg *mail.Msg, err error) {
	msg = mail.NewMsg()
	if err = msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender '%s': %w", m.cfg.From, err)
	}
	if err = msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipient list: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetDate()

	runID := message.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	msg.SetMessageIDWithValue(runID + "@" + senderDomain(m.cfg.From))
	msg.SetGenHeader(mail.Header("X-Report-Run-ID"), runID)

	msg.SetBodyString(mail.TypeTextHTML, message.HTML)
	if message.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, message.Text)
	}
	return msg, nil
}

// logFailure logs the SMTP status of a failed attempt when the server gave one.
func logFailure(attempt, attempts int, err error) {
	tl.Log(tl.Warning, palette.Yellow, "Attempt %s/%s failed: %s", attempt, attempts, describeFailure(err))
}

func describeFailure(err error) string {
	var sendErr *mail.SendError
	if !errors.As(err, &sendErr) {
		return err.Error()
	}
	return fmt.Sprintf(
		"step=%s code=%d enhanced=%s temporary=%t: %s",
		sendErr.Reason, sendErr.ErrorCode(), sendErr.EnhancedStatusCode(), sendErr.IsTemp(), sendErr,
	)
}

func senderDomain(from string) string {
	address := strings.TrimSuffix(strings.TrimSpace(from), ">")
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
