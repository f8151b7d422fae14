package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/assetdesk/assetdesk/internal/model"
)

// Mailer delivers workflow notifications. Send failures are reported to
// callers as a flag, never as a failed operation: reservation correctness
// does not depend on delivery.
type Mailer interface {
	SendInvitation(ctx context.Context, employee *model.Employee, items []model.Item, acceptURL string) error
	SendConfirmation(ctx context.Context, employee *model.Employee, items []model.Item) error
}

// AcceptURL builds the link emailed to an employee.
func AcceptURL(baseURL, tokenStr string) string {
	return strings.TrimRight(baseURL, "/") + "/accept#" + url.PathEscape(tokenStr)
}

// SMTPMailer sends plain-text mail through a relay.
type SMTPMailer struct {
	Host string
	Port string
	From string
}

func (m *SMTPMailer) SendInvitation(ctx context.Context, employee *model.Employee, items []model.Item, acceptURL string) error {
	body := fmt.Sprintf("Hello %s,\r\n\r\nThe following items have been reserved for you:\r\n\r\n%s\r\nPlease confirm or decline here: %s\r\n",
		employee.Name, itemLines(items), acceptURL)
	return m.send(employee.Email, "Equipment assignment awaiting your confirmation", body)
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, employee *model.Employee, items []model.Item) error {
	body := fmt.Sprintf("Hello %s,\r\n\r\nYou have accepted the following items:\r\n\r\n%s\r\n",
		employee.Name, itemLines(items))
	return m.send(employee.Email, "Equipment assignment confirmed", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.From, to, subject, body)
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func itemLines(items []model.Item) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "  - %s (%s)\r\n", item.Name, item.Kind)
	}
	return b.String()
}

// LogMailer logs instead of sending, for deployments without a relay.
type LogMailer struct{}

func (LogMailer) SendInvitation(ctx context.Context, employee *model.Employee, items []model.Item, acceptURL string) error {
	slog.Info("invitation mail (not sent)", "to", employee.Email, "items", len(items), "url", acceptURL)
	return nil
}

func (LogMailer) SendConfirmation(ctx context.Context, employee *model.Employee, items []model.Item) error {
	slog.Info("confirmation mail (not sent)", "to", employee.Email, "items", len(items))
	return nil
}
