// Package notify sends collection notifications over SMTP.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/crediario/credit-engine/config"
	"github.com/crediario/credit-engine/credit"
)

// Sender delivers emails through the configured SMTP relay.
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender.
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{cfg: cfg, logger: logger}
}

// SendAgendaSummary mails the day's collection agenda: credits due today
// and credits coming due within the week. Client names are resolved by the
// caller and passed alongside each credit.
func (s *Sender) SendAgendaSummary(day time.Time, agenda credit.Agenda, clientNames map[string]string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.ReminderTo}
	e.Subject = fmt.Sprintf("Collection agenda for %s", day.Format("2006-01-02"))

	var b strings.Builder
	fmt.Fprintf(&b, "Collection agenda for %s\n\n", day.Format("Monday, 2 January 2006"))

	fmt.Fprintf(&b, "Due today (%d):\n", len(agenda.Today))
	writeAgendaLines(&b, agenda.Today, clientNames)

	fmt.Fprintf(&b, "\nDue within 7 days (%d):\n", len(agenda.Upcoming))
	writeAgendaLines(&b, agenda.Upcoming, clientNames)

	b.WriteString("\n-- credit-engine\n")
	e.Text = []byte(b.String())

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send agenda summary to %s: %v", s.cfg.ReminderTo, err)
		return fmt.Errorf("failed to send agenda summary: %w", err)
	}

	s.logger.Infof("Agenda summary sent to %s", s.cfg.ReminderTo)
	return nil
}

func writeAgendaLines(b *strings.Builder, credits []*credit.Credit, clientNames map[string]string) {
	if len(credits) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, c := range credits {
		name := clientNames[c.ClientID]
		if name == "" {
			name = c.ClientID
		}
		due := ""
		if c.NextPaymentDate != nil {
			due = c.NextPaymentDate.Format("2006-01-02")
		}
		fmt.Fprintf(b, "  %s: balance %s, %d installments left, due %s\n",
			name, c.TotalAmount.StringFixed(2), c.RemainingInstallments, due)
	}
}
