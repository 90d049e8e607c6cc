// Package email renders and delivers transactional mail over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"buildvive_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender is the outbound mail capability consumed by the notification module.
type Sender interface {
	SendQuoteConfirmation(ctx context.Context, toEmail, name, projectType string) error
	SendQuoteApproved(ctx context.Context, toEmail, name, documentURL string) error
	SendQuoteInfoRequested(ctx context.Context, toEmail, name, notes string) error
	SendEscalationAlert(ctx context.Context, toEmail, sessionID, reason, participantName, participantPhone string) error
}

// SMTPSender delivers rendered HTML templates via a direct SMTP connection.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSender creates an SMTPSender from configuration.
func NewSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendQuoteConfirmation(ctx context.Context, toEmail, name, projectType string) error {
	content, err := renderEmailTemplate("quote_confirmation.html", quoteConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:   "We received your quote request",
			Heading: "Thanks for your request!",
		},
		Name:        name,
		ProjectType: projectType,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectQuoteConfirmation, content)
}

func (s *SMTPSender) SendQuoteApproved(ctx context.Context, toEmail, name, documentURL string) error {
	content, err := renderEmailTemplate("quote_approved.html", quoteApprovedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Your quote is ready",
			Heading:  "Your quote is ready",
			CTALabel: "View your quote",
			CTAURL:   documentURL,
		},
		Name: name,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectQuoteApproved, content)
}

func (s *SMTPSender) SendQuoteInfoRequested(ctx context.Context, toEmail, name, notes string) error {
	content, err := renderEmailTemplate("quote_info_requested.html", quoteInfoRequestedEmailData{
		baseEmailData: baseEmailData{
			Title:   "We need a few more details",
			Heading: "We need a few more details",
		},
		Name:  name,
		Notes: notes,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectQuoteInfoRequested, content)
}

func (s *SMTPSender) SendEscalationAlert(ctx context.Context, toEmail, sessionID, reason, participantName, participantPhone string) error {
	content, err := renderEmailTemplate("escalation_alert.html", escalationAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Chat escalation",
			Heading: "A visitor needs a human",
		},
		SessionID:        sessionID,
		Reason:           reason,
		ParticipantName:  participantName,
		ParticipantPhone: participantPhone,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectEscalationAlertFmt, sessionID), content)
}
