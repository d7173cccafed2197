package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPNotifier sends caregiver alerts over plain SMTP.
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) SendMissedDoseAlert(ctx context.Context, alert Alert) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}

	messageID := uuid.NewString()
	subject := fmt.Sprintf("Missed dose: %s", alert.MedicineName)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n%s missed the %s dose of %s (%s) scheduled for %s.\r\n\r\nPlease check in with them.\r\n",
		alert.CaregiverName,
		patientOrDefault(alert.PatientName),
		alert.ScheduledTime,
		alert.MedicineName,
		alert.Dosage,
		alert.MissedDate.Format("Monday, 2 Jan 2006"),
	)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", alert.CaregiverEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Message-ID: <%s>\r\n", messageID)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := n.send(n.addr, n.auth, n.from, []string{alert.CaregiverEmail}, []byte(msg.String())); err != nil {
		return Delivery{}, fmt.Errorf("send caregiver alert: %w", err)
	}
	return Delivery{Success: true, MessageID: messageID}, nil
}

func patientOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Your patient"
	}
	return name
}
