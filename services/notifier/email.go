package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"pricepick/config"
	apperr "pricepick/pkg/errors"
)

// EmailChannel sends alert notifications over SMTP.
type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
}

var _ Channel = (*EmailChannel)(nil)

// NewEmailChannel creates an email channel from the SMTP configuration.
func NewEmailChannel(cfg config.Config) *EmailChannel {
	return &EmailChannel{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

func (c *EmailChannel) Name() string { return ChannelEmail }

// Send delivers the alert email to the owning user.
func (c *EmailChannel) Send(payload *Payload) error {
	if payload.User == nil || payload.User.Email == "" {
		return apperr.NewNotification("email", "alert user has no email address", nil)
	}
	if !payload.User.EmailEnabled {
		return apperr.NewNotification("email", "user has email notifications disabled", nil)
	}

	msg := c.compose(payload)
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	if err := smtp.SendMail(addr, auth, c.from, []string{payload.User.Email}, msg); err != nil {
		return apperr.NewNotification("email", "failed to send alert email", err)
	}
	return nil
}

func (c *EmailChannel) compose(payload *Payload) []byte {
	product := payload.Product
	subject := fmt.Sprintf("Price alert: %s is now %s%.2f",
		product.Name, currencySymbol(product.Currency), payload.CurrentPrice)

	var body strings.Builder
	fmt.Fprintf(&body, "Good news!\r\n\r\n")
	fmt.Fprintf(&body, "%s hit your alert:\r\n\r\n", product.Name)
	fmt.Fprintf(&body, "  Current price: %s%.2f\r\n",
		currencySymbol(product.Currency), payload.CurrentPrice)
	if payload.PreviousPrice != nil {
		fmt.Fprintf(&body, "  Previous price: %s%.2f\r\n",
			currencySymbol(product.Currency), *payload.PreviousPrice)
	}
	fmt.Fprintf(&body, "  Target price: %s%.2f\r\n\r\n",
		currencySymbol(product.Currency), payload.Alert.TargetPrice)
	fmt.Fprintf(&body, "View the product: %s\r\n", product.URL)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", c.from)
	fmt.Fprintf(&msg, "To: %s\r\n", payload.User.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body.String())
	return []byte(msg.String())
}

func currencySymbol(currency string) string {
	switch currency {
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "USD", "":
		return "$"
	}
	return currency + " "
}
