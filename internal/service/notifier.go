package service

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/LeventeLantos/kram/internal/metrics"
	"github.com/LeventeLantos/kram/internal/phone"
)

// SMSPreviewLength is how many characters of the kram text go into the SMS.
const SMSPreviewLength = 50

type SendClient interface {
	Send(ctx context.Context, msisdn, body string) (remoteMessageID string, err error)
}

var smsTemplates = template.Must(template.Must(
	template.New("named").Parse(`{{.Name}} har sendt dig et kram: "{{.Text}}"`),
).New("anonymous").Parse(`Nogen har sendt dig et kram: "{{.Text}}"`))

type Notifier struct {
	client SendClient
}

func NewNotifier(client SendClient) *Notifier {
	return &Notifier{client: client}
}

// Send renders the kram into an SMS and hands it to the gateway once.
func (n *Notifier) Send(ctx context.Context, text string, name *string, phoneNumber string) (string, error) {
	body, err := n.render(text, name)
	if err != nil {
		return "", err
	}

	start := time.Now()
	remoteID, err := n.client.Send(ctx, phone.International(phoneNumber), body)
	metrics.SMSDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SMSTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("send sms: %w", err)
	}
	metrics.SMSTotal.WithLabelValues("sent").Inc()
	return remoteID, nil
}

func (n *Notifier) render(text string, name *string) (string, error) {
	data := struct{ Name, Text string }{Text: truncate(text, SMSPreviewLength)}

	tmplName := "anonymous"
	if name != nil && strings.TrimSpace(*name) != "" {
		tmplName = "named"
		data.Name = strings.TrimSpace(*name)
	}

	var sb strings.Builder
	if err := smsTemplates.ExecuteTemplate(&sb, tmplName, data); err != nil {
		return "", fmt.Errorf("render sms: %w", err)
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
