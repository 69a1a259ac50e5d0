package services

import (
	"fmt"
	"net/smtp"
	"os"
)

// EmailService sends member notifications and operational alerts over SMTP.
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	alertTo  string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
		alertTo:  os.Getenv("OPS_ALERT_EMAIL"),
	}
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendPoolReadyNotice prompts a pending member to pay once their pool has
// reached the minimum group size.
func (s *EmailService) SendPoolReadyNotice(to, dealTitle string, discountPct int, amount float64) error {
	subject := fmt.Sprintf("Your group for %q is ready - complete your booking", dealTitle)
	body := fmt.Sprintf(
		"Good news! Your travel pool for %q reached the minimum group size.\n"+
			"The %d%% group discount is unlocked and your price is %.2f.\n"+
			"Head back to the deal page to complete your payment before the pool expires.",
		dealTitle, discountPct, amount)
	return s.SendEmail([]string{to}, subject, body)
}

// SendReconciliationAlert flags a post-payment mismatch for manual follow
// up. The booking stands; retrying the webhook would not fix the gap.
func (s *EmailService) SendReconciliationAlert(orderID string, poolID, userID uint, detail string) error {
	if s.alertTo == "" {
		return fmt.Errorf("OPS_ALERT_EMAIL not configured")
	}
	subject := fmt.Sprintf("[solowcrew] reconciliation needed for order %s", orderID)
	body := fmt.Sprintf("Order %s (pool %d, user %d) needs manual reconciliation:\n%s", orderID, poolID, userID, detail)
	return s.SendEmail([]string{s.alertTo}, subject, body)
}
