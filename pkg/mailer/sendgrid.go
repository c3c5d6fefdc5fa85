package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Sender delivers messages to a mail provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	key  string
	from *sgmail.Email
}

// NewSendGridSender constructs a sender with the given API key and from
// identity.
func NewSendGridSender(key, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

// Send submits the message and fails on any non-2xx provider response.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if msg.ToAddress == "" {
		return fmt.Errorf("sendgrid: message has no recipient")
	}

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
